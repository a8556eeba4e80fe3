package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
)

// BookingRepo stores bookings.  Status changes are always guarded by the
// status the caller observed, so two concurrent transitions on the same
// booking cannot both succeed.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, client_id, restaurant_id, booking_date, booking_time, guest_count, status,
	qr_token, has_arrived, arrived_at, can_review, special_requests, created_at, updated_at`

// BookingFilter narrows restaurant-side listings.  Zero values mean "any".
type BookingFilter struct {
	Status model.BookingStatus
	Date   string
	Limit  int
	Offset int
}

// Create inserts a new booking.  CreatedAt/UpdatedAt are taken from b.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (id, client_id, restaurant_id, booking_date, booking_time, guest_count,
		status, qr_token, has_arrived, can_review, special_requests, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		b.ID, b.ClientID, b.RestaurantID, b.Date, b.Time, b.GuestCount,
		string(b.Status), b.QRToken, b.HasArrived, b.CanReview, nullString(b.SpecialRequests),
		b.CreatedAt.UTC(), b.UpdatedAt.UTC())
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// GetByID returns the booking with the given id or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	return scanBooking(row)
}

// GetByQRToken returns the booking carrying the given check-in token.
func (r *BookingRepo) GetByQRToken(ctx context.Context, token string) (*model.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE qr_token = ?`, token)
	return scanBooking(row)
}

// UpdateStatus moves a booking from `from` to `to`.  canReview is written in
// the same statement.  ErrStaleStatus is returned when the row is no
// longer in `from` (or does not exist).
func (r *BookingRepo) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus, canReview bool, at time.Time) error {
	const q = `UPDATE bookings SET status = ?, can_review = ?, updated_at = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, string(to), canReview, at.UTC(), id, string(from))
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleStatus
	}
	return nil
}

// MarkArrived sets has_arrived on a confirmed booking that has not been
// scanned yet.  ErrStaleStatus means the booking left `confirmed` or was
// already marked by a concurrent scan.
func (r *BookingRepo) MarkArrived(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE bookings SET has_arrived = 1, arrived_at = ?, updated_at = ?
		WHERE id = ? AND status = 'confirmed' AND has_arrived = 0`
	res, err := r.db.ExecContext(ctx, q, at.UTC(), at.UTC(), id)
	if err != nil {
		return fmt.Errorf("mark arrived: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark arrived: %w", err)
	}
	if n == 0 {
		return ErrStaleStatus
	}
	return nil
}

// ListByClient returns a client's bookings, newest first.
func (r *BookingRepo) ListByClient(ctx context.Context, clientID uint64) ([]*model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE client_id = ? ORDER BY created_at DESC`, clientID)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// ListByRestaurant returns the bookings of a restaurant ordered by
// reservation date and time.
func (r *BookingRepo) ListByRestaurant(ctx context.Context, restaurantID uint64, f BookingFilter) ([]*model.Booking, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + bookingColumns + ` FROM bookings WHERE restaurant_id = ?`)
	args := []any{restaurantID}
	if f.Status != "" {
		sb.WriteString(` AND status = ?`)
		args = append(args, string(f.Status))
	}
	if f.Date != "" {
		sb.WriteString(` AND booking_date = ?`)
		args = append(args, f.Date)
	}
	sb.WriteString(` ORDER BY booking_date, booking_time`)
	if f.Limit > 0 {
		sb.WriteString(` LIMIT ? OFFSET ?`)
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// ListPendingBefore returns pending bookings whose reservation moment
// (booking_date + booking_time, local to the restaurant) is earlier than
// cutoff, formatted as "YYYY-MM-DD HH:MM".
func (r *BookingRepo) ListPendingBefore(ctx context.Context, cutoff string, limit int) ([]*model.Booking, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE status = 'pending' AND CONCAT(booking_date, ' ', booking_time) < ?
		 ORDER BY booking_date, booking_time LIMIT ?`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// CountByStatus counts bookings created in [from, to) grouped by status.
func (r *BookingRepo) CountByStatus(ctx context.Context, from, to time.Time) (map[model.BookingStatus]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM bookings WHERE created_at >= ? AND created_at < ? GROUP BY status`,
		from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[model.BookingStatus]int64)
	for rows.Next() {
		var s string
		var n int64
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[model.BookingStatus(s)] = n
	}
	return out, rows.Err()
}

func collectBookings(rows *sql.Rows) ([]*model.Booking, error) {
	defer rows.Close()
	out := []*model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var (
		b         model.Booking
		status    string
		arrivedAt sql.NullTime
		requests  sql.NullString
	)
	err := row.Scan(&b.ID, &b.ClientID, &b.RestaurantID, &b.Date, &b.Time, &b.GuestCount, &status,
		&b.QRToken, &b.HasArrived, &arrivedAt, &b.CanReview, &requests, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.Status = model.BookingStatus(status)
	if arrivedAt.Valid {
		t := arrivedAt.Time
		b.ArrivedAt = &t
	}
	if requests.Valid {
		s := requests.String
		b.SpecialRequests = &s
	}
	return &b, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
