// Package service holds the booking lifecycle, the review gate and the
// marketplace operations around them.  Services depend on the store
// interfaces below; the MySQL repositories satisfy them in production and
// package servicetest provides in-memory versions for tests.
package service

import (
	"context"
	"time"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/qrtoken"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/repository"
)

type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetByQRToken(ctx context.Context, token string) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus, canReview bool, at time.Time) error
	MarkArrived(ctx context.Context, id string, at time.Time) error
	ListByClient(ctx context.Context, clientID uint64) ([]*model.Booking, error)
	ListByRestaurant(ctx context.Context, restaurantID uint64, f repository.BookingFilter) ([]*model.Booking, error)
	ListPendingBefore(ctx context.Context, cutoff string, limit int) ([]*model.Booking, error)
	CountByStatus(ctx context.Context, from, to time.Time) (map[model.BookingStatus]int64, error)
}

type RestaurantStore interface {
	Create(ctx context.Context, r *model.Restaurant) error
	Update(ctx context.Context, r *model.Restaurant) error
	GetByID(ctx context.Context, id uint64) (*model.Restaurant, error)
	GetByOwner(ctx context.Context, ownerID uint64) (*model.Restaurant, error)
	Search(ctx context.Context, f repository.SearchFilter) ([]*model.Restaurant, error)
}

type ReviewStore interface {
	Create(ctx context.Context, rv *model.Review) error
	ExistsForBooking(ctx context.Context, bookingID string) (bool, error)
	GetByID(ctx context.Context, id string) (*model.Review, error)
	ListByRestaurant(ctx context.Context, restaurantID uint64, includeHidden bool) ([]*model.Review, error)
	Summary(ctx context.Context, restaurantID uint64) (model.RatingSummary, error)
	SetReply(ctx context.Context, id, reply string, at time.Time) error
	SetHidden(ctx context.Context, id string, hidden bool) error
}

type MenuStore interface {
	Create(ctx context.Context, m *model.MenuItem) error
	Update(ctx context.Context, m *model.MenuItem) error
	Delete(ctx context.Context, restaurantID, id uint64) error
	GetByID(ctx context.Context, restaurantID, id uint64) (*model.MenuItem, error)
	ListByRestaurant(ctx context.Context, restaurantID uint64, onlyAvailable bool) ([]*model.MenuItem, error)
}

type FavoriteStore interface {
	Add(ctx context.Context, clientID, restaurantID uint64) error
	Remove(ctx context.Context, clientID, restaurantID uint64) error
	ListByClient(ctx context.Context, clientID uint64) ([]*model.Favorite, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByRecipient(ctx context.Context, recipientID uint64, unreadOnly bool, limit int) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id string, recipientID uint64) error
	MarkAllRead(ctx context.Context, recipientID uint64) (int64, error)
}

type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	List(ctx context.Context, from, to time.Time) ([]*model.Payment, error)
	MonthlyTotals(ctx context.Context, from, to time.Time) ([]model.MonthlyRevenue, error)
}

// QRCodec issues and verifies booking check-in tokens.
type QRCodec interface {
	Issue(p qrtoken.Payload) (string, error)
	Parse(raw string) (qrtoken.Payload, error)
}
