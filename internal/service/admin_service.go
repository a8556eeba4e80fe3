package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/repository"
)

const maxReportSpan = 366 * 24 * time.Hour

// AdminService records restaurant subscription payments and builds the
// revenue dashboard.
type AdminService struct {
	payments    PaymentStore
	bookings    BookingStore
	restaurants RestaurantStore
	now         func() time.Time
}

func NewAdminService(payments PaymentStore, bookings BookingStore, restaurants RestaurantStore, clock func() time.Time) *AdminService {
	if clock == nil {
		clock = time.Now
	}
	return &AdminService{payments: payments, bookings: bookings, restaurants: restaurants, now: clock}
}

// PaymentInput is a subscription payment recorded by an admin.
type PaymentInput struct {
	RestaurantID uint64     `json:"restaurant_id"`
	AmountCents  int64      `json:"amount_cents"`
	Description  string     `json:"description"`
	PaidAt       *time.Time `json:"paid_at"`
}

func (s *AdminService) RecordPayment(ctx context.Context, in PaymentInput) (*model.Payment, error) {
	if in.RestaurantID == 0 {
		return nil, invalid("restaurant_id", "is required")
	}
	if in.AmountCents <= 0 {
		return nil, invalid("amount_cents", "must be positive")
	}
	if _, err := s.restaurants.GetByID(ctx, in.RestaurantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "restaurant", ID: fmt.Sprint(in.RestaurantID)}
		}
		return nil, err
	}
	p := &model.Payment{
		RestaurantID: in.RestaurantID,
		AmountCents:  uint64(in.AmountCents),
		Description:  strings.TrimSpace(in.Description),
		PaidAt:       s.now().UTC(),
	}
	if in.PaidAt != nil {
		p.PaidAt = in.PaidAt.UTC()
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"restaurant_id": p.RestaurantID,
		"amount_cents":  p.AmountCents,
	}).Info("payment recorded")
	return p, nil
}

// reportRange defaults to the last twelve months and rejects inverted or
// overlong ranges.
func (s *AdminService) reportRange(from, to time.Time) (time.Time, time.Time, error) {
	if to.IsZero() {
		to = s.now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(-1, 0, 0)
	}
	if !from.Before(to) {
		return from, to, invalid("from", "must be before to")
	}
	if to.Sub(from) > maxReportSpan {
		return from, to, invalid("from", "range must not exceed one year")
	}
	return from.UTC(), to.UTC(), nil
}

func (s *AdminService) ListPayments(ctx context.Context, from, to time.Time) ([]*model.Payment, error) {
	from, to, err := s.reportRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.payments.List(ctx, from, to)
}

// Revenue returns totals per month plus booking counts per status for
// [from, to).
func (s *AdminService) Revenue(ctx context.Context, from, to time.Time) (*model.RevenueReport, error) {
	from, to, err := s.reportRange(from, to)
	if err != nil {
		return nil, err
	}
	months, err := s.payments.MonthlyTotals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	counts, err := s.bookings.CountByStatus(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("booking counts: %w", err)
	}
	rep := &model.RevenueReport{From: from, To: to, Months: months, BookingsByStatus: counts}
	for _, m := range months {
		rep.TotalCents += m.AmountCents
	}
	return rep, nil
}
