// Package servicetest provides in-memory stores, a recording dispatcher
// and a controllable clock for exercising the service and handler layers
// without MySQL or RabbitMQ.
package servicetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/notify"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/repository"
)

// Clock is a settable time source.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{t: t} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Recorder is a notify.Dispatcher that keeps every event.
type Recorder struct {
	mu     sync.Mutex
	events []notify.Event
	Err    error
}

func (r *Recorder) Dispatch(_ context.Context, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.Err
}

func (r *Recorder) Events() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// Users is an in-memory user table.
type Users struct {
	mu   sync.Mutex
	rows map[uint64]model.User
}

func NewUsers(users ...model.User) *Users {
	u := &Users{rows: make(map[uint64]model.User)}
	for _, x := range users {
		u.rows[x.ID] = x
	}
	return u
}

func (u *Users) Put(x model.User) {
	u.mu.Lock()
	u.rows[x.ID] = x
	u.mu.Unlock()
}

func (u *Users) GetByID(_ context.Context, id uint64) (model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	x, ok := u.rows[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return x, nil
}

// Restaurants is an in-memory restaurant table.
type Restaurants struct {
	mu     sync.Mutex
	rows   map[uint64]model.Restaurant
	nextID uint64
}

func NewRestaurants() *Restaurants {
	return &Restaurants{rows: make(map[uint64]model.Restaurant)}
}

func (s *Restaurants) Create(_ context.Context, r *model.Restaurant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.rows {
		if x.OwnerID == r.OwnerID {
			return repository.ErrDuplicate
		}
	}
	if r.ID == 0 {
		s.nextID++
		r.ID = s.nextID
	} else if r.ID > s.nextID {
		s.nextID = r.ID
	}
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	s.rows[r.ID] = *r
	return nil
}

func (s *Restaurants) Update(_ context.Context, r *model.Restaurant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	x, ok := s.rows[r.ID]
	if !ok || x.OwnerID != r.OwnerID {
		return nil
	}
	r.UpdatedAt = time.Now().UTC()
	s.rows[r.ID] = *r
	return nil
}

func (s *Restaurants) GetByID(_ context.Context, id uint64) (*model.Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	x, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &x, nil
}

func (s *Restaurants) GetByOwner(_ context.Context, ownerID uint64) (*model.Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.rows {
		if x.OwnerID == ownerID {
			x := x
			return &x, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Restaurants) Search(_ context.Context, f repository.SearchFilter) ([]*model.Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := []*model.Restaurant{}
	for _, x := range s.rows {
		if q != "" && !strings.Contains(strings.ToLower(x.Name), q) && !strings.Contains(strings.ToLower(x.Description), q) {
			continue
		}
		if f.City != "" && x.City != f.City {
			continue
		}
		if f.Cuisine != "" && x.Cuisine != f.Cuisine {
			continue
		}
		if f.Certified != nil && x.Certified != *f.Certified {
			continue
		}
		x := x
		out = append(out, &x)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Certified != out[j].Certified {
			return out[i].Certified
		}
		return out[i].Name < out[j].Name
	})
	return page(out, f.Limit, f.Offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
