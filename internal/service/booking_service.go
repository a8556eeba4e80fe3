package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/notify"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/qrtoken"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/repository"
)

const (
	dateLayout          = "2006-01-02"
	timeLayout          = "15:04"
	maxSpecialRequests  = 500
	defaultMaxGuests    = 20
	defaultExpiryBatch  = 100
	qrImageDefaultPixel = 256
)

// BookingOptions tunes a BookingService.  Zero values select defaults.
type BookingOptions struct {
	MaxGuests int
	Location  *time.Location
	Clock     func() time.Time
}

// BookingService owns the booking lifecycle: creation, status
// transitions and arrival check-in.
type BookingService struct {
	bookings    BookingStore
	users       UserLookup
	restaurants RestaurantStore
	qr          QRCodec
	notifier    notify.Dispatcher

	maxGuests int
	loc       *time.Location
	now       func() time.Time
}

func NewBookingService(bookings BookingStore, users UserLookup, restaurants RestaurantStore, qr QRCodec, notifier notify.Dispatcher, opts BookingOptions) *BookingService {
	if opts.MaxGuests <= 0 {
		opts.MaxGuests = defaultMaxGuests
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if notifier == nil {
		notifier = notify.Discard
	}
	return &BookingService{
		bookings:    bookings,
		users:       users,
		restaurants: restaurants,
		qr:          qr,
		notifier:    notifier,
		maxGuests:   opts.MaxGuests,
		loc:         opts.Location,
		now:         opts.Clock,
	}
}

// CreateBookingInput carries the reservation parameters chosen by a client.
type CreateBookingInput struct {
	ClientID        uint64
	RestaurantID    uint64
	Date            string
	Time            string
	GuestCount      int
	SpecialRequests string
}

// CreateBooking registers a pending booking and notifies the restaurant.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
	if in.ClientID == 0 {
		return nil, invalid("client_id", "is required")
	}
	if in.RestaurantID == 0 {
		return nil, invalid("restaurant_id", "is required")
	}
	date, clock := strings.TrimSpace(in.Date), strings.TrimSpace(in.Time)
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, invalid("date", "must be YYYY-MM-DD")
	}
	if _, err := time.Parse(timeLayout, clock); err != nil || len(clock) != len(timeLayout) {
		return nil, invalid("time", "must be HH:MM")
	}
	if at, _ := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, s.loc); !at.After(s.now()) {
		return nil, invalid("date", "must be in the future")
	}
	if in.GuestCount < 1 || in.GuestCount > s.maxGuests {
		return nil, invalid("guest_count", fmt.Sprintf("must be between 1 and %d", s.maxGuests))
	}
	requests := strings.TrimSpace(in.SpecialRequests)
	if utf8.RuneCountInString(requests) > maxSpecialRequests {
		return nil, invalid("special_requests", fmt.Sprintf("must be at most %d characters", maxSpecialRequests))
	}

	client, err := s.users.GetByID(ctx, in.ClientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "client", ID: fmt.Sprint(in.ClientID)}
		}
		return nil, fmt.Errorf("load client: %w", err)
	}
	if client.Role != model.RoleClient {
		return nil, forbidden(ReasonRoleNotAllowed)
	}
	rest, err := s.restaurant(ctx, in.RestaurantID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	b := &model.Booking{
		ID:           uuid.NewString(),
		ClientID:     in.ClientID,
		RestaurantID: in.RestaurantID,
		Date:         date,
		Time:         clock,
		GuestCount:   in.GuestCount,
		Status:       model.BookingPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if requests != "" {
		b.SpecialRequests = &requests
	}
	b.QRToken, err = s.qr.Issue(qrtoken.Payload{
		BookingID:    b.ID,
		RestaurantID: b.RestaurantID,
		ClientID:     b.ClientID,
		IssuedAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("issue qr token: %w", err)
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"booking_id":    b.ID,
		"restaurant_id": b.RestaurantID,
		"client_id":     b.ClientID,
	}).Info("booking created")

	name := client.DisplayName
	if name == "" {
		name = "A client"
	}
	s.dispatch(ctx, b, notify.Event{
		Type:        model.NotifyBookingCreated,
		RecipientID: rest.OwnerID,
		Title:       "New booking request",
		Body:        fmt.Sprintf("%s requested a table for %d on %s at %s.", name, b.GuestCount, b.Date, b.Time),
	})
	return b, nil
}

// TransitionStatus moves a booking to status `to` and applies the side
// effects attached to that edge.  Re-applying the current status is a
// no-op.
func (s *BookingService) TransitionStatus(ctx context.Context, actor model.Actor, bookingID string, to model.BookingStatus) (*model.Booking, error) {
	if !to.Valid() {
		return nil, invalid("status", fmt.Sprintf("unknown status %q", to))
	}
	b, err := s.booking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	rest, err := s.restaurant(ctx, b.RestaurantID)
	if err != nil {
		return nil, err
	}
	if err := authorizeTransition(actor, b, rest, to); err != nil {
		return nil, err
	}
	if b.Status == to {
		return b, nil
	}
	rule, err := lookupTransition(b.Status, to)
	if err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{
		"booking_id":    b.ID,
		"restaurant_id": b.RestaurantID,
		"from":          b.Status,
		"to":            to,
	})
	if to == model.BookingCompleted && !b.HasArrived {
		log.Warn("completing booking without arrival scan")
	}

	now := s.now().UTC()
	if err := s.bookings.UpdateStatus(ctx, b.ID, b.Status, to, rule.canReview, now); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, &ConflictError{Entity: "booking", ID: b.ID}
		}
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	b.Status = to
	b.CanReview = rule.canReview
	b.UpdatedAt = now
	log.Info("booking status changed")

	if rule.notices != nil {
		for _, ev := range rule.notices(b, rest, actor) {
			s.dispatch(ctx, b, ev)
		}
	}
	return b, nil
}

// authorizeTransition lets the restaurant owner apply any status and the
// booking's client only cancel.  The system actor may do anything.
func authorizeTransition(actor model.Actor, b *model.Booking, r *model.Restaurant, to model.BookingStatus) error {
	switch {
	case actor.IsSystem():
		return nil
	case actor.Role == model.RoleRestaurant && actor.UserID == r.OwnerID:
		return nil
	case actor.Role == model.RoleClient && actor.UserID == b.ClientID:
		if to != model.BookingCancelled {
			return forbidden(ReasonRoleNotAllowed)
		}
		return nil
	}
	return forbidden(ReasonNotOwner)
}

// ScanArrival checks a client in by the token printed on their QR code.
// Only the owner of the booking's restaurant may scan, and only while the
// booking is confirmed.  A repeated scan succeeds without changes.
func (s *BookingService) ScanArrival(ctx context.Context, actor model.Actor, token string) (*model.Booking, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, invalid("qr_token", "is required")
	}
	payload, err := s.qr.Parse(token)
	if err != nil {
		return nil, &NotFoundError{Entity: "booking"}
	}
	b, err := s.bookings.GetByQRToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "booking", ID: payload.BookingID}
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if b.ID != payload.BookingID {
		return nil, &NotFoundError{Entity: "booking", ID: payload.BookingID}
	}
	rest, err := s.restaurant(ctx, b.RestaurantID)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleRestaurant || actor.UserID != rest.OwnerID {
		return nil, forbidden(ReasonNotOwner)
	}
	if b.Status != model.BookingConfirmed {
		return nil, &InvalidStateError{Op: "arrival scan", Status: b.Status}
	}
	if b.HasArrived {
		return b, nil
	}

	now := s.now().UTC()
	if err := s.bookings.MarkArrived(ctx, b.ID, now); err != nil {
		if !errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("mark arrived: %w", err)
		}
		// Someone else changed the row since we read it.
		cur, lerr := s.booking(ctx, b.ID)
		if lerr != nil {
			return nil, lerr
		}
		if cur.Status == model.BookingConfirmed && cur.HasArrived {
			return cur, nil
		}
		return nil, &InvalidStateError{Op: "arrival scan", Status: cur.Status}
	}
	b.HasArrived = true
	b.ArrivedAt = &now
	b.UpdatedAt = now
	logrus.WithFields(logrus.Fields{
		"booking_id":    b.ID,
		"restaurant_id": b.RestaurantID,
	}).Info("client arrival recorded")
	return b, nil
}

// GetBooking returns a booking to its client, the restaurant owner or an
// admin.
func (s *BookingService) GetBooking(ctx context.Context, actor model.Actor, id string) (*model.Booking, error) {
	b, err := s.booking(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleAdmin || (actor.Role == model.RoleClient && actor.UserID == b.ClientID) {
		return b, nil
	}
	if actor.Role == model.RoleRestaurant {
		rest, err := s.restaurant(ctx, b.RestaurantID)
		if err != nil {
			return nil, err
		}
		if rest.OwnerID == actor.UserID {
			return b, nil
		}
	}
	return nil, forbidden(ReasonNotOwner)
}

// QRCode renders the check-in code of a booking for its client.
func (s *BookingService) QRCode(ctx context.Context, actor model.Actor, id string, size int) ([]byte, error) {
	b, err := s.booking(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID != b.ClientID || actor.Role != model.RoleClient {
		return nil, forbidden(ReasonClientMismatch)
	}
	if size <= 0 || size > 1024 {
		size = qrImageDefaultPixel
	}
	png, err := qrtoken.PNG(b.QRToken, size)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}
	return png, nil
}

// ListClientBookings returns the bookings of one client, newest first.
func (s *BookingService) ListClientBookings(ctx context.Context, clientID uint64) ([]*model.Booking, error) {
	return s.bookings.ListByClient(ctx, clientID)
}

// RestaurantBookingFilter narrows the owner's booking list.
type RestaurantBookingFilter struct {
	Status string
	Date   string
	Limit  int
	Offset int
}

// ListRestaurantBookings returns the bookings of the restaurant managed by
// ownerID.
func (s *BookingService) ListRestaurantBookings(ctx context.Context, ownerID uint64, f RestaurantBookingFilter) ([]*model.Booking, error) {
	rest, err := s.restaurants.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "restaurant"}
		}
		return nil, err
	}
	filter := repository.BookingFilter{Limit: f.Limit, Offset: f.Offset}
	if f.Status != "" {
		st := model.BookingStatus(strings.ToLower(f.Status))
		if !st.Valid() {
			return nil, invalid("status", fmt.Sprintf("unknown status %q", f.Status))
		}
		filter.Status = st
	}
	if f.Date != "" {
		if _, err := time.Parse(dateLayout, f.Date); err != nil {
			return nil, invalid("date", "must be YYYY-MM-DD")
		}
		filter.Date = f.Date
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, invalid("limit", "must not be negative")
	}
	return s.bookings.ListByRestaurant(ctx, rest.ID, filter)
}

// ExpirePending cancels pending bookings whose reservation time passed
// more than grace ago.  Bookings changed concurrently are skipped.
func (s *BookingService) ExpirePending(ctx context.Context, grace time.Duration, limit int) (int, error) {
	if limit <= 0 {
		limit = defaultExpiryBatch
	}
	cutoff := s.now().In(s.loc).Add(-grace).Format(dateLayout + " " + timeLayout)
	stale, err := s.bookings.ListPendingBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("list stale pending bookings: %w", err)
	}
	expired := 0
	for _, b := range stale {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		_, err := s.TransitionStatus(ctx, model.SystemActor, b.ID, model.BookingCancelled)
		var conflict *ConflictError
		var illegal *IllegalTransitionError
		switch {
		case err == nil:
			expired++
		case errors.As(err, &conflict), errors.As(err, &illegal):
			logrus.WithField("booking_id", b.ID).Debug("pending booking changed before expiry")
		default:
			logrus.WithError(err).WithField("booking_id", b.ID).Error("expire pending booking")
		}
	}
	return expired, nil
}

func (s *BookingService) booking(ctx context.Context, id string) (*model.Booking, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalid("booking_id", "is required")
	}
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "booking", ID: id}
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}
	return b, nil
}

func (s *BookingService) restaurant(ctx context.Context, id uint64) (*model.Restaurant, error) {
	r, err := s.restaurants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "restaurant", ID: fmt.Sprint(id)}
		}
		return nil, fmt.Errorf("load restaurant: %w", err)
	}
	return r, nil
}

// dispatch hands ev to the notifier.  Failures are logged, never returned.
func (s *BookingService) dispatch(ctx context.Context, b *model.Booking, ev notify.Event) {
	ev.BookingID = b.ID
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = s.now().UTC()
	}
	if err := s.notifier.Dispatch(ctx, ev); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"booking_id":   b.ID,
			"type":         ev.Type,
			"recipient_id": ev.RecipientID,
		}).Warn("notification dispatch failed")
	}
}
