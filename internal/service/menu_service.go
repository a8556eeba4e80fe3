package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/repository"
)

const maxPriceCents = 10_000_000

// MenuService lets an owner maintain the menu of their restaurant.
type MenuService struct {
	menu        MenuStore
	restaurants RestaurantStore
}

func NewMenuService(menu MenuStore, restaurants RestaurantStore) *MenuService {
	return &MenuService{menu: menu, restaurants: restaurants}
}

// MenuItemInput holds the editable fields of a menu item.
type MenuItemInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	PriceCents  int64   `json:"price_cents"`
	GlutenFree  *bool   `json:"gluten_free"`
	ImageURL    *string `json:"image_url"`
	Available   *bool   `json:"available"`
}

func (in MenuItemInput) apply(m *model.MenuItem) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return invalid("name", "is required")
	}
	if in.PriceCents < 0 || in.PriceCents > maxPriceCents {
		return invalid("price_cents", fmt.Sprintf("must be between 0 and %d", maxPriceCents))
	}
	m.Name = name
	m.Description = strings.TrimSpace(in.Description)
	m.PriceCents = uint32(in.PriceCents)
	if in.GlutenFree != nil {
		m.GlutenFree = *in.GlutenFree
	}
	if in.Available != nil {
		m.Available = *in.Available
	}
	m.ImageURL = nil
	if in.ImageURL != nil {
		raw := strings.TrimSpace(*in.ImageURL)
		if raw != "" {
			u, err := url.Parse(raw)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return invalid("image_url", "must be an http(s) URL")
			}
			m.ImageURL = &raw
		}
	}
	return nil
}

// Add creates a menu item for the owner's restaurant.
func (s *MenuService) Add(ctx context.Context, ownerID uint64, in MenuItemInput) (*model.MenuItem, error) {
	rest, err := s.ownRestaurant(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	m := &model.MenuItem{RestaurantID: rest.ID, GlutenFree: true, Available: true}
	if err := in.apply(m); err != nil {
		return nil, err
	}
	if err := s.menu.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Update rewrites one item of the owner's restaurant.
func (s *MenuService) Update(ctx context.Context, ownerID, itemID uint64, in MenuItemInput) (*model.MenuItem, error) {
	rest, err := s.ownRestaurant(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	m, err := s.menu.GetByID(ctx, rest.ID, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "menu item", ID: fmt.Sprint(itemID)}
		}
		return nil, err
	}
	if err := in.apply(m); err != nil {
		return nil, err
	}
	if err := s.menu.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes one item of the owner's restaurant.
func (s *MenuService) Delete(ctx context.Context, ownerID, itemID uint64) error {
	rest, err := s.ownRestaurant(ctx, ownerID)
	if err != nil {
		return err
	}
	if err := s.menu.Delete(ctx, rest.ID, itemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Entity: "menu item", ID: fmt.Sprint(itemID)}
		}
		return err
	}
	return nil
}

// Public lists the available items of a restaurant.
func (s *MenuService) Public(ctx context.Context, restaurantID uint64) ([]*model.MenuItem, error) {
	if _, err := s.restaurants.GetByID(ctx, restaurantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "restaurant", ID: fmt.Sprint(restaurantID)}
		}
		return nil, err
	}
	return s.menu.ListByRestaurant(ctx, restaurantID, true)
}

// Own lists every item of the owner's restaurant, including unavailable ones.
func (s *MenuService) Own(ctx context.Context, ownerID uint64) ([]*model.MenuItem, error) {
	rest, err := s.ownRestaurant(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.menu.ListByRestaurant(ctx, rest.ID, false)
}

func (s *MenuService) ownRestaurant(ctx context.Context, ownerID uint64) (*model.Restaurant, error) {
	r, err := s.restaurants.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "restaurant"}
		}
		return nil, err
	}
	return r, nil
}
