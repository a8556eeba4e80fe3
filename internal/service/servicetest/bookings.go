package servicetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/repository"
)

// Bookings is an in-memory booking table with the same guarded update
// semantics as the MySQL repository.
type Bookings struct {
	mu     sync.Mutex
	rows   map[string]model.Booking
	tokens map[string]string

	// BeforeUpdate, when set, runs inside UpdateStatus before the guard is
	// checked.  Tests use it to simulate a concurrent writer.
	BeforeUpdate func(id string)
}

func NewBookings() *Bookings {
	return &Bookings{rows: make(map[string]model.Booking), tokens: make(map[string]string)}
}

func (s *Bookings) Create(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[b.ID]; ok {
		return repository.ErrDuplicate
	}
	if _, ok := s.tokens[b.QRToken]; ok {
		return repository.ErrDuplicate
	}
	s.rows[b.ID] = *b
	s.tokens[b.QRToken] = b.ID
	return nil
}

func (s *Bookings) GetByID(_ context.Context, id string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (s *Bookings) GetByQRToken(_ context.Context, token string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	b := s.rows[id]
	return &b, nil
}

// ForceStatus overwrites a booking's status without any guard.
func (s *Bookings) ForceStatus(id string, st model.BookingStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.rows[id]
	b.Status = st
	b.CanReview = st == model.BookingCompleted
	s.rows[id] = b
}

func (s *Bookings) UpdateStatus(_ context.Context, id string, from, to model.BookingStatus, canReview bool, at time.Time) error {
	if hook := s.BeforeUpdate; hook != nil {
		hook(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok || b.Status != from {
		return repository.ErrStaleStatus
	}
	b.Status, b.CanReview, b.UpdatedAt = to, canReview, at
	s.rows[id] = b
	return nil
}

func (s *Bookings) MarkArrived(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok || b.Status != model.BookingConfirmed || b.HasArrived {
		return repository.ErrStaleStatus
	}
	b.HasArrived = true
	b.ArrivedAt = &at
	b.UpdatedAt = at
	s.rows[id] = b
	return nil
}

func (s *Bookings) ListByClient(_ context.Context, clientID uint64) ([]*model.Booking, error) {
	return s.filter(func(b model.Booking) bool { return b.ClientID == clientID }, func(a, b *model.Booking) bool {
		return a.CreatedAt.After(b.CreatedAt)
	}), nil
}

func (s *Bookings) ListByRestaurant(_ context.Context, restaurantID uint64, f repository.BookingFilter) ([]*model.Booking, error) {
	out := s.filter(func(b model.Booking) bool {
		return b.RestaurantID == restaurantID &&
			(f.Status == "" || b.Status == f.Status) &&
			(f.Date == "" || b.Date == f.Date)
	}, byReservation)
	return page(out, f.Limit, f.Offset), nil
}

func (s *Bookings) ListPendingBefore(_ context.Context, cutoff string, limit int) ([]*model.Booking, error) {
	out := s.filter(func(b model.Booking) bool {
		return b.Status == model.BookingPending && b.Date+" "+b.Time < cutoff
	}, byReservation)
	return page(out, limit, 0), nil
}

func (s *Bookings) CountByStatus(_ context.Context, from, to time.Time) (map[model.BookingStatus]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[model.BookingStatus]int64)
	for _, b := range s.rows {
		if !b.CreatedAt.Before(from) && b.CreatedAt.Before(to) {
			out[b.Status]++
		}
	}
	return out, nil
}

func (s *Bookings) filter(keep func(model.Booking) bool, less func(a, b *model.Booking) bool) []*model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Booking{}
	for _, b := range s.rows {
		if keep(b) {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byReservation(a, b *model.Booking) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	return a.ID < b.ID
}
