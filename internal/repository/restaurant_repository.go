package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
)

// RestaurantRepo provides CRUD and search for restaurants.
type RestaurantRepo struct{ db *sql.DB }

func NewRestaurantRepo(db *sql.DB) *RestaurantRepo { return &RestaurantRepo{db: db} }

const restaurantColumns = `id, owner_id, name, city, address, cuisine, description, phone, certified, created_at, updated_at`

// SearchFilter is the public discovery query.
type SearchFilter struct {
	Query     string
	City      string
	Cuisine   string
	Certified *bool
	Limit     int
	Offset    int
}

// Create inserts the restaurant and fills its ID.  ErrDuplicate means the
// owner already manages a restaurant.
func (r *RestaurantRepo) Create(ctx context.Context, rs *model.Restaurant) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO restaurants (owner_id, name, city, address, cuisine, description, phone, certified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rs.OwnerID, rs.Name, rs.City, rs.Address, rs.Cuisine, rs.Description, rs.Phone, rs.Certified)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert restaurant: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rs.ID = uint64(id)
	return nil
}

// Update rewrites the editable profile fields of the owner's restaurant.
func (r *RestaurantRepo) Update(ctx context.Context, rs *model.Restaurant) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE restaurants SET name = ?, city = ?, address = ?, cuisine = ?, description = ?, phone = ?, certified = ?
		 WHERE id = ? AND owner_id = ?`,
		rs.Name, rs.City, rs.Address, rs.Cuisine, rs.Description, rs.Phone, rs.Certified, rs.ID, rs.OwnerID)
	return err
}

func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (*model.Restaurant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id = ?`, id)
	return scanRestaurant(row)
}

func (r *RestaurantRepo) GetByOwner(ctx context.Context, ownerID uint64) (*model.Restaurant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE owner_id = ?`, ownerID)
	return scanRestaurant(row)
}

// Search filters restaurants by free text (name/description), city and
// cuisine.  Results are ordered certified first, then by name.
func (r *RestaurantRepo) Search(ctx context.Context, f SearchFilter) ([]*model.Restaurant, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + restaurantColumns + ` FROM restaurants WHERE 1=1`)
	args := []any{}
	if q := strings.TrimSpace(f.Query); q != "" {
		sb.WriteString(` AND (name LIKE ? OR description LIKE ?)`)
		like := "%" + escapeLike(q) + "%"
		args = append(args, like, like)
	}
	if f.City != "" {
		sb.WriteString(` AND city = ?`)
		args = append(args, f.City)
	}
	if f.Cuisine != "" {
		sb.WriteString(` AND cuisine = ?`)
		args = append(args, f.Cuisine)
	}
	if f.Certified != nil {
		sb.WriteString(` AND certified = ?`)
		args = append(args, *f.Certified)
	}
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	sb.WriteString(` ORDER BY certified DESC, name ASC LIMIT ? OFFSET ?`)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.Restaurant{}
	for rows.Next() {
		rs, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

func scanRestaurant(row rowScanner) (*model.Restaurant, error) {
	var rs model.Restaurant
	err := row.Scan(&rs.ID, &rs.OwnerID, &rs.Name, &rs.City, &rs.Address, &rs.Cuisine,
		&rs.Description, &rs.Phone, &rs.Certified, &rs.CreatedAt, &rs.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rs, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
