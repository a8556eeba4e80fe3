package repository

import (
	"context"
	"database/sql"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
)

// FavoriteRepo stores the restaurants a client has saved.
type FavoriteRepo struct{ db *sql.DB }

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

// Add saves a favorite.  Saving twice is a no-op.
func (r *FavoriteRepo) Add(ctx context.Context, clientID, restaurantID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT IGNORE INTO favorites (client_id, restaurant_id) VALUES (?, ?)`, clientID, restaurantID)
	return err
}

// Remove deletes a favorite.  Removing a missing favorite is a no-op.
func (r *FavoriteRepo) Remove(ctx context.Context, clientID, restaurantID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE client_id = ? AND restaurant_id = ?`, clientID, restaurantID)
	return err
}

// ListByClient returns favorites with their restaurant, most recent first.
func (r *FavoriteRepo) ListByClient(ctx context.Context, clientID uint64) ([]*model.Favorite, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT f.client_id, f.created_at,
		        r.id, r.owner_id, r.name, r.city, r.address, r.cuisine, r.description, r.phone,
		        r.certified, r.created_at, r.updated_at
		 FROM favorites f JOIN restaurants r ON r.id = f.restaurant_id
		 WHERE f.client_id = ?
		 ORDER BY f.created_at DESC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.Favorite{}
	for rows.Next() {
		var f model.Favorite
		rs := &f.Restaurant
		if err := rows.Scan(&f.ClientID, &f.CreatedAt,
			&rs.ID, &rs.OwnerID, &rs.Name, &rs.City, &rs.Address, &rs.Cuisine, &rs.Description, &rs.Phone,
			&rs.Certified, &rs.CreatedAt, &rs.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
