package servicetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/repository"
)

// Reviews is an in-memory review table with a unique booking_id.
type Reviews struct {
	mu   sync.Mutex
	rows map[string]model.Review
}

func NewReviews() *Reviews { return &Reviews{rows: make(map[string]model.Review)} }

func (s *Reviews) Create(_ context.Context, rv *model.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.rows {
		if x.BookingID == rv.BookingID {
			return repository.ErrDuplicate
		}
	}
	s.rows[rv.ID] = *rv
	return nil
}

func (s *Reviews) ExistsForBooking(_ context.Context, bookingID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.rows {
		if x.BookingID == bookingID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Reviews) GetByID(_ context.Context, id string) (*model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	x, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &x, nil
}

func (s *Reviews) ListByRestaurant(_ context.Context, restaurantID uint64, includeHidden bool) ([]*model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Review{}
	for _, x := range s.rows {
		if x.RestaurantID == restaurantID && (includeHidden || !x.Hidden) {
			x := x
			out = append(out, &x)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Reviews) Summary(ctx context.Context, restaurantID uint64) (model.RatingSummary, error) {
	items, _ := s.ListByRestaurant(ctx, restaurantID, false)
	var sum model.RatingSummary
	if len(items) == 0 {
		return sum, nil
	}
	total := 0
	for _, x := range items {
		total += x.Rating
	}
	sum.Count = len(items)
	sum.Average = float64(total) / float64(len(items))
	return sum, nil
}

func (s *Reviews) SetReply(_ context.Context, id, reply string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	x, ok := s.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	x.OwnerReply, x.RepliedAt = &reply, &at
	s.rows[id] = x
	return nil
}

func (s *Reviews) SetHidden(_ context.Context, id string, hidden bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	x, ok := s.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	x.Hidden = hidden
	s.rows[id] = x
	return nil
}

// Menu is an in-memory menu table.
type Menu struct {
	mu     sync.Mutex
	rows   map[uint64]model.MenuItem
	nextID uint64
}

func NewMenu() *Menu { return &Menu{rows: make(map[uint64]model.MenuItem)} }

func (s *Menu) Create(_ context.Context, m *model.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	m.ID = s.nextID
	s.rows[m.ID] = *m
	return nil
}

func (s *Menu) Update(_ context.Context, m *model.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if x, ok := s.rows[m.ID]; ok && x.RestaurantID == m.RestaurantID {
		s.rows[m.ID] = *m
	}
	return nil
}

func (s *Menu) Delete(_ context.Context, restaurantID, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	x, ok := s.rows[id]
	if !ok || x.RestaurantID != restaurantID {
		return repository.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *Menu) GetByID(_ context.Context, restaurantID, id uint64) (*model.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	x, ok := s.rows[id]
	if !ok || x.RestaurantID != restaurantID {
		return nil, repository.ErrNotFound
	}
	return &x, nil
}

func (s *Menu) ListByRestaurant(_ context.Context, restaurantID uint64, onlyAvailable bool) ([]*model.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.MenuItem{}
	for _, x := range s.rows {
		if x.RestaurantID == restaurantID && (!onlyAvailable || x.Available) {
			x := x
			out = append(out, &x)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Favorites is an in-memory favorites table.
type Favorites struct {
	mu          sync.Mutex
	rows        map[[2]uint64]time.Time
	restaurants *Restaurants
}

// NewFavorites joins listed favorites against restaurants.
func NewFavorites(restaurants *Restaurants) *Favorites {
	return &Favorites{rows: make(map[[2]uint64]time.Time), restaurants: restaurants}
}

func (s *Favorites) Add(_ context.Context, clientID, restaurantID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := [2]uint64{clientID, restaurantID}
	if _, ok := s.rows[k]; !ok {
		s.rows[k] = time.Now().UTC()
	}
	return nil
}

func (s *Favorites) Remove(_ context.Context, clientID, restaurantID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, [2]uint64{clientID, restaurantID})
	return nil
}

func (s *Favorites) ListByClient(ctx context.Context, clientID uint64) ([]*model.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Favorite{}
	for k, at := range s.rows {
		if k[0] != clientID {
			continue
		}
		r, err := s.restaurants.GetByID(ctx, k[1])
		if err != nil {
			continue
		}
		out = append(out, &model.Favorite{ClientID: clientID, Restaurant: *r, CreatedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Notifications is an in-memory notification table.
type Notifications struct {
	mu   sync.Mutex
	rows []model.Notification
}

func NewNotifications() *Notifications { return &Notifications{} }

func (s *Notifications) Create(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, *n)
	return nil
}

func (s *Notifications) ListByRecipient(_ context.Context, recipientID uint64, unreadOnly bool, limit int) ([]*model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	out := []*model.Notification{}
	for i := len(s.rows) - 1; i >= 0 && len(out) < limit; i-- {
		n := s.rows[i]
		if n.RecipientID == recipientID && (!unreadOnly || !n.Read) {
			out = append(out, &n)
		}
	}
	return out, nil
}

func (s *Notifications) MarkRead(_ context.Context, id string, recipientID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id && s.rows[i].RecipientID == recipientID {
			s.rows[i].Read = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *Notifications) MarkAllRead(_ context.Context, recipientID uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.rows {
		if s.rows[i].RecipientID == recipientID && !s.rows[i].Read {
			s.rows[i].Read = true
			n++
		}
	}
	return n, nil
}

// Payments is an in-memory payment table.
type Payments struct {
	mu     sync.Mutex
	rows   []model.Payment
	nextID uint64
}

func NewPayments() *Payments { return &Payments{} }

func (s *Payments) Create(_ context.Context, p *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	s.rows = append(s.rows, *p)
	return nil
}

func (s *Payments) List(_ context.Context, from, to time.Time) ([]*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Payment{}
	for _, p := range s.rows {
		if !p.PaidAt.Before(from) && p.PaidAt.Before(to) {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.After(out[j].PaidAt) })
	return out, nil
}

func (s *Payments) MonthlyTotals(ctx context.Context, from, to time.Time) ([]model.MonthlyRevenue, error) {
	items, _ := s.List(ctx, from, to)
	byMonth := map[string]*model.MonthlyRevenue{}
	for _, p := range items {
		key := p.PaidAt.UTC().Format("2006-01")
		m := byMonth[key]
		if m == nil {
			m = &model.MonthlyRevenue{Month: key}
			byMonth[key] = m
		}
		m.AmountCents += p.AmountCents
		m.Payments++
	}
	out := make([]model.MonthlyRevenue, 0, len(byMonth))
	for _, m := range byMonth {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}
