package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
)

// ReviewRepo stores reviews.  The unique index on booking_id guarantees at
// most one review per booking even when two submissions race.
type ReviewRepo struct{ db *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewColumns = `r.id, r.booking_id, r.restaurant_id, r.client_id, COALESCE(u.display_name, ''),
	r.rating, r.comment, r.is_verified, r.owner_reply, r.replied_at, r.hidden, r.created_at`

// Create inserts rv.  ErrDuplicate means the booking is already reviewed.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	const q = `INSERT INTO reviews (id, booking_id, restaurant_id, client_id, rating, comment, is_verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, rv.ID, rv.BookingID, rv.RestaurantID, rv.ClientID,
		rv.Rating, rv.Comment, rv.IsVerified, rv.CreatedAt.UTC())
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// ExistsForBooking reports whether a review was already left for bookingID.
func (r *ReviewRepo) ExistsForBooking(ctx context.Context, bookingID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM reviews WHERE booking_id = ? LIMIT 1`, bookingID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *ReviewRepo) GetByID(ctx context.Context, id string) (*model.Review, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews r LEFT JOIN users u ON u.id = r.client_id WHERE r.id = ?`, id)
	return scanReview(row)
}

// ListByRestaurant returns reviews newest first.  Hidden reviews are
// included only when includeHidden is set.
func (r *ReviewRepo) ListByRestaurant(ctx context.Context, restaurantID uint64, includeHidden bool) ([]*model.Review, error) {
	q := `SELECT ` + reviewColumns + ` FROM reviews r LEFT JOIN users u ON u.id = r.client_id
		WHERE r.restaurant_id = ?`
	if !includeHidden {
		q += ` AND r.hidden = 0`
	}
	q += ` ORDER BY r.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// Summary averages the visible ratings of a restaurant.
func (r *ReviewRepo) Summary(ctx context.Context, restaurantID uint64) (model.RatingSummary, error) {
	var s model.RatingSummary
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		`SELECT AVG(rating), COUNT(*) FROM reviews WHERE restaurant_id = ? AND hidden = 0`,
		restaurantID).Scan(&avg, &s.Count)
	if err != nil {
		return s, err
	}
	if avg.Valid {
		s.Average = avg.Float64
	}
	return s, nil
}

// SetReply stores the restaurant's public answer to a review.
func (r *ReviewRepo) SetReply(ctx context.Context, id, reply string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reviews SET owner_reply = ?, replied_at = ? WHERE id = ?`, reply, at.UTC(), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// SetHidden toggles admin moderation visibility.
func (r *ReviewRepo) SetHidden(ctx context.Context, id string, hidden bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reviews SET hidden = ? WHERE id = ?`, hidden, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func scanReview(row rowScanner) (*model.Review, error) {
	var (
		rv        model.Review
		reply     sql.NullString
		repliedAt sql.NullTime
	)
	err := row.Scan(&rv.ID, &rv.BookingID, &rv.RestaurantID, &rv.ClientID, &rv.ClientName,
		&rv.Rating, &rv.Comment, &rv.IsVerified, &reply, &repliedAt, &rv.Hidden, &rv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if reply.Valid {
		s := reply.String
		rv.OwnerReply = &s
	}
	if repliedAt.Valid {
		t := repliedAt.Time
		rv.RepliedAt = &t
	}
	return &rv, nil
}

// requireAffected maps "no row matched" to ErrNotFound.  The connection is
// opened with ClientFoundRows so unchanged rows still count.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
