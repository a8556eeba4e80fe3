package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/repository"
)

type FavoriteService struct {
	favorites   FavoriteStore
	restaurants RestaurantStore
}

func NewFavoriteService(favorites FavoriteStore, restaurants RestaurantStore) *FavoriteService {
	return &FavoriteService{favorites: favorites, restaurants: restaurants}
}

// Add saves a restaurant for the client.  Adding twice is harmless.
func (s *FavoriteService) Add(ctx context.Context, clientID, restaurantID uint64) error {
	if restaurantID == 0 {
		return invalid("restaurant_id", "is required")
	}
	if _, err := s.restaurants.GetByID(ctx, restaurantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Entity: "restaurant", ID: fmt.Sprint(restaurantID)}
		}
		return err
	}
	return s.favorites.Add(ctx, clientID, restaurantID)
}

func (s *FavoriteService) Remove(ctx context.Context, clientID, restaurantID uint64) error {
	return s.favorites.Remove(ctx, clientID, restaurantID)
}

func (s *FavoriteService) List(ctx context.Context, clientID uint64) ([]*model.Favorite, error) {
	return s.favorites.ListByClient(ctx, clientID)
}
