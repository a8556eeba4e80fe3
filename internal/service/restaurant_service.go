package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/repository"
)

// RestaurantService manages restaurant profiles and public discovery.
type RestaurantService struct {
	restaurants RestaurantStore
}

func NewRestaurantService(restaurants RestaurantStore) *RestaurantService {
	return &RestaurantService{restaurants: restaurants}
}

// RestaurantInput holds the editable profile fields.
type RestaurantInput struct {
	Name        string `json:"name"`
	City        string `json:"city"`
	Address     string `json:"address"`
	Cuisine     string `json:"cuisine"`
	Description string `json:"description"`
	Phone       string `json:"phone"`
	Certified   bool   `json:"certified"`
}

func (in RestaurantInput) normalize() (RestaurantInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.City = strings.TrimSpace(in.City)
	in.Address = strings.TrimSpace(in.Address)
	in.Cuisine = strings.ToLower(strings.TrimSpace(in.Cuisine))
	in.Description = strings.TrimSpace(in.Description)
	in.Phone = strings.TrimSpace(in.Phone)
	switch {
	case in.Name == "":
		return in, invalid("name", "is required")
	case len(in.Name) > 160:
		return in, invalid("name", "must be at most 160 characters")
	case in.City == "":
		return in, invalid("city", "is required")
	}
	return in, nil
}

// Create registers the restaurant managed by ownerID.  An owner manages at
// most one restaurant.
func (s *RestaurantService) Create(ctx context.Context, ownerID uint64, in RestaurantInput) (*model.Restaurant, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	r := &model.Restaurant{
		OwnerID:     ownerID,
		Name:        in.Name,
		City:        in.City,
		Address:     in.Address,
		Cuisine:     in.Cuisine,
		Description: in.Description,
		Phone:       in.Phone,
		Certified:   in.Certified,
	}
	if err := s.restaurants.Create(ctx, r); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ConflictError{Entity: "restaurant", ID: "for owner " + fmt.Sprint(ownerID)}
		}
		return nil, fmt.Errorf("create restaurant: %w", err)
	}
	return s.restaurants.GetByID(ctx, r.ID)
}

// Update rewrites the owner's restaurant profile.
func (s *RestaurantService) Update(ctx context.Context, ownerID uint64, in RestaurantInput) (*model.Restaurant, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	r, err := s.Own(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	r.Name, r.City, r.Address = in.Name, in.City, in.Address
	r.Cuisine, r.Description, r.Phone = in.Cuisine, in.Description, in.Phone
	r.Certified = in.Certified
	if err := s.restaurants.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("update restaurant: %w", err)
	}
	return r, nil
}

// Own returns the restaurant managed by ownerID.
func (s *RestaurantService) Own(ctx context.Context, ownerID uint64) (*model.Restaurant, error) {
	r, err := s.restaurants.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "restaurant"}
		}
		return nil, err
	}
	return r, nil
}

func (s *RestaurantService) Get(ctx context.Context, id uint64) (*model.Restaurant, error) {
	r, err := s.restaurants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "restaurant", ID: fmt.Sprint(id)}
		}
		return nil, err
	}
	return r, nil
}

// Search runs the public discovery query.
func (s *RestaurantService) Search(ctx context.Context, f repository.SearchFilter) ([]*model.Restaurant, error) {
	if f.Limit < 0 || f.Offset < 0 {
		return nil, invalid("limit", "must not be negative")
	}
	f.Cuisine = strings.ToLower(strings.TrimSpace(f.Cuisine))
	f.City = strings.TrimSpace(f.City)
	return s.restaurants.Search(ctx, f)
}
