package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
)

// PaymentRepo stores subscription payments made by restaurants.
type PaymentRepo struct{ db *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (restaurant_id, amount_cents, description, paid_at) VALUES (?, ?, ?, ?)`,
		p.RestaurantID, p.AmountCents, p.Description, p.PaidAt.UTC())
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// List returns payments in [from, to), newest first.
func (r *PaymentRepo) List(ctx context.Context, from, to time.Time) ([]*model.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, restaurant_id, amount_cents, description, paid_at FROM payments
		 WHERE paid_at >= ? AND paid_at < ? ORDER BY paid_at DESC`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.Payment{}
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.RestaurantID, &p.AmountCents, &p.Description, &p.PaidAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// MonthlyTotals sums payments in [from, to) per calendar month (UTC).
func (r *PaymentRepo) MonthlyTotals(ctx context.Context, from, to time.Time) ([]model.MonthlyRevenue, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DATE_FORMAT(paid_at, '%Y-%m') AS month, SUM(amount_cents), COUNT(*)
		 FROM payments WHERE paid_at >= ? AND paid_at < ?
		 GROUP BY month ORDER BY month`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.MonthlyRevenue{}
	for rows.Next() {
		var m model.MonthlyRevenue
		if err := rows.Scan(&m.Month, &m.AmountCents, &m.Payments); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
