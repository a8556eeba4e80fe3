package servicetest

import (
	"context"
	"time"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/qrtoken"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/service"
)

// Well-known fixture accounts.
const (
	ClientID      uint64 = 1
	OtherClientID uint64 = 2
	OwnerID       uint64 = 10
	OtherOwnerID  uint64 = 11
	AdminID       uint64 = 99

	RestaurantID      uint64 = 100
	OtherRestaurantID uint64 = 101

	QRSecret = "qr-test-secret"
)

// Start is the fixture clock's initial time, well before the sample
// reservation dates used in tests.
var Start = time.Date(2025, 2, 20, 12, 0, 0, 0, time.UTC)

// Env wires every service over in-memory stores.
type Env struct {
	Clock         *Clock
	Notifier      *Recorder
	QR            *qrtoken.Issuer
	Users         *Users
	Restaurants   *Restaurants
	Bookings      *Bookings
	Reviews       *Reviews
	Menu          *Menu
	Favorites     *Favorites
	Notifications *Notifications
	Payments      *Payments

	BookingSvc      *service.BookingService
	ReviewSvc       *service.ReviewService
	RestaurantSvc   *service.RestaurantService
	MenuSvc         *service.MenuService
	FavoriteSvc     *service.FavoriteService
	NotificationSvc *service.NotificationService
	AdminSvc        *service.AdminService
}

// New returns an Env seeded with two clients, two owners with one
// restaurant each, and an admin.
func New() *Env {
	e := &Env{
		Clock:         NewClock(Start),
		Notifier:      &Recorder{},
		QR:            qrtoken.NewIssuer(QRSecret),
		Users:         NewUsers(),
		Restaurants:   NewRestaurants(),
		Bookings:      NewBookings(),
		Reviews:       NewReviews(),
		Menu:          NewMenu(),
		Notifications: NewNotifications(),
		Payments:      NewPayments(),
	}
	e.Favorites = NewFavorites(e.Restaurants)

	for _, u := range []model.User{
		{ID: ClientID, Email: "c1@example.com", DisplayName: "Chiara", Role: model.RoleClient, IsActive: true},
		{ID: OtherClientID, Email: "c2@example.com", DisplayName: "Marco", Role: model.RoleClient, IsActive: true},
		{ID: OwnerID, Email: "owner@example.com", DisplayName: "Trattoria", Role: model.RoleRestaurant, IsActive: true},
		{ID: OtherOwnerID, Email: "owner2@example.com", DisplayName: "Pizzeria", Role: model.RoleRestaurant, IsActive: true},
		{ID: AdminID, Email: "admin@example.com", DisplayName: "Admin", Role: model.RoleAdmin, IsActive: true},
	} {
		e.Users.Put(u)
	}
	ctx := context.Background()
	_ = e.Restaurants.Create(ctx, &model.Restaurant{
		ID: RestaurantID, OwnerID: OwnerID, Name: "Trattoria Senza Glutine", City: "Roma",
		Cuisine: "italian", Description: "Certified gluten-free pasta", Certified: true,
	})
	_ = e.Restaurants.Create(ctx, &model.Restaurant{
		ID: OtherRestaurantID, OwnerID: OtherOwnerID, Name: "Pizzeria Libera", City: "Milano",
		Cuisine: "pizza", Description: "Dedicated gluten-free oven",
	})

	e.BookingSvc = service.NewBookingService(e.Bookings, e.Users, e.Restaurants, e.QR, e.Notifier,
		service.BookingOptions{MaxGuests: 20, Clock: e.Clock.Now})
	e.ReviewSvc = service.NewReviewService(e.Bookings, e.Reviews, e.Restaurants, e.Notifier, e.Clock.Now)
	e.RestaurantSvc = service.NewRestaurantService(e.Restaurants)
	e.MenuSvc = service.NewMenuService(e.Menu, e.Restaurants)
	e.FavoriteSvc = service.NewFavoriteService(e.Favorites, e.Restaurants)
	e.NotificationSvc = service.NewNotificationService(e.Notifications)
	e.AdminSvc = service.NewAdminService(e.Payments, e.Bookings, e.Restaurants, e.Clock.Now)
	return e
}

// Actors used throughout tests.
var (
	Client      = model.Actor{UserID: ClientID, Role: model.RoleClient}
	OtherClient = model.Actor{UserID: OtherClientID, Role: model.RoleClient}
	Owner       = model.Actor{UserID: OwnerID, Role: model.RoleRestaurant}
	OtherOwner  = model.Actor{UserID: OtherOwnerID, Role: model.RoleRestaurant}
	Admin       = model.Actor{UserID: AdminID, Role: model.RoleAdmin}
)

// Book creates a pending booking for Client at RestaurantID.
func (e *Env) Book(ctx context.Context) (*model.Booking, error) {
	return e.BookingSvc.CreateBooking(ctx, service.CreateBookingInput{
		ClientID:     ClientID,
		RestaurantID: RestaurantID,
		Date:         "2025-03-01",
		Time:         "20:00",
		GuestCount:   2,
	})
}
