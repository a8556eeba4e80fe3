package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
)

type MenuRepo struct{ db *sql.DB }

func NewMenuRepo(db *sql.DB) *MenuRepo { return &MenuRepo{db: db} }

const menuColumns = `id, restaurant_id, name, description, price_cents, gluten_free, image_url, available, created_at, updated_at`

func (r *MenuRepo) Create(ctx context.Context, m *model.MenuItem) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO menu_items (restaurant_id, name, description, price_cents, gluten_free, image_url, available)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.RestaurantID, m.Name, m.Description, m.PriceCents, m.GlutenFree, nullString(m.ImageURL), m.Available)
	if err != nil {
		return fmt.Errorf("insert menu item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// Update rewrites an item scoped to its restaurant.
func (r *MenuRepo) Update(ctx context.Context, m *model.MenuItem) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE menu_items SET name = ?, description = ?, price_cents = ?, gluten_free = ?, image_url = ?, available = ?
		 WHERE id = ? AND restaurant_id = ?`,
		m.Name, m.Description, m.PriceCents, m.GlutenFree, nullString(m.ImageURL), m.Available, m.ID, m.RestaurantID)
	return err
}

// Delete removes an item; ErrNotFound when it does not belong to restaurantID.
func (r *MenuRepo) Delete(ctx context.Context, restaurantID, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ? AND restaurant_id = ?`, id, restaurantID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *MenuRepo) GetByID(ctx context.Context, restaurantID, id uint64) (*model.MenuItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+menuColumns+` FROM menu_items WHERE id = ? AND restaurant_id = ?`, id, restaurantID)
	return scanMenuItem(row)
}

func (r *MenuRepo) ListByRestaurant(ctx context.Context, restaurantID uint64, onlyAvailable bool) ([]*model.MenuItem, error) {
	q := `SELECT ` + menuColumns + ` FROM menu_items WHERE restaurant_id = ?`
	if onlyAvailable {
		q += ` AND available = 1`
	}
	q += ` ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.MenuItem{}
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMenuItem(row rowScanner) (*model.MenuItem, error) {
	var m model.MenuItem
	var img sql.NullString
	err := row.Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Description, &m.PriceCents, &m.GlutenFree,
		&img, &m.Available, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if img.Valid {
		s := img.String
		m.ImageURL = &s
	}
	return &m, nil
}
