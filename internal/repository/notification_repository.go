package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
)

// NotificationRepo persists per-user notifications.
type NotificationRepo struct{ db *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, recipient_id, type, title, body, booking_id, is_read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.RecipientID, n.Type, n.Title, n.Body, nullString(n.BookingID), n.Read, n.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListByRecipient returns the newest notifications first.  A limit of zero
// means 50.
func (r *NotificationRepo) ListByRecipient(ctx context.Context, recipientID uint64, unreadOnly bool, limit int) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT id, recipient_id, type, title, body, booking_id, is_read, created_at
		FROM notifications WHERE recipient_id = ?`
	if unreadOnly {
		q += ` AND is_read = 0`
	}
	q += ` ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, recipientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.Notification{}
	for rows.Next() {
		var (
			n   model.Notification
			bid sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Type, &n.Title, &n.Body, &bid, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		if bid.Valid {
			s := bid.String
			n.BookingID = &s
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

// MarkRead flags one notification as read.  ErrNotFound is returned when
// the notification does not belong to recipientID.
func (r *NotificationRepo) MarkRead(ctx context.Context, id string, recipientID uint64) error {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM notifications WHERE id = ? AND recipient_id = ?`, id, recipientID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	return err
}

// MarkAllRead flags every unread notification of recipientID and returns
// how many changed.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipientID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE recipient_id = ? AND is_read = 0`, recipientID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
