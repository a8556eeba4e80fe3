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
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/repository"
)

const (
	maxReviewComment = 2000
	maxReviewReply   = 1000
)

// Eligibility is the outcome of the review gate.  Reason names the failed
// precondition when Allowed is false.
type Eligibility struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// ReviewService gates review submission on the booking lifecycle and
// handles owner replies and admin moderation.
type ReviewService struct {
	bookings    BookingStore
	reviews     ReviewStore
	restaurants RestaurantStore
	notifier    notify.Dispatcher
	now         func() time.Time
}

func NewReviewService(bookings BookingStore, reviews ReviewStore, restaurants RestaurantStore, notifier notify.Dispatcher, clock func() time.Time) *ReviewService {
	if clock == nil {
		clock = time.Now
	}
	if notifier == nil {
		notifier = notify.Discard
	}
	return &ReviewService{bookings: bookings, reviews: reviews, restaurants: restaurants, notifier: notifier, now: clock}
}

// CheckReviewEligibility evaluates the gate for one booking.  The returned
// error is reserved for storage failures.
func (s *ReviewService) CheckReviewEligibility(ctx context.Context, bookingID string, clientID uint64) (Eligibility, error) {
	_, elig, err := s.gate(ctx, bookingID, clientID)
	return elig, err
}

// CanSubmitReview reports whether clientID may review bookingID now.
func (s *ReviewService) CanSubmitReview(ctx context.Context, bookingID string, clientID uint64) (bool, error) {
	elig, err := s.CheckReviewEligibility(ctx, bookingID, clientID)
	return elig.Allowed, err
}

func (s *ReviewService) gate(ctx context.Context, bookingID string, clientID uint64) (*model.Booking, Eligibility, error) {
	b, err := s.bookings.GetByID(ctx, strings.TrimSpace(bookingID))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, Eligibility{Reason: ReasonBookingNotFound}, nil
	case err != nil:
		return nil, Eligibility{}, fmt.Errorf("load booking: %w", err)
	case b.ClientID != clientID:
		return b, Eligibility{Reason: ReasonClientMismatch}, nil
	case b.Status != model.BookingCompleted:
		return b, Eligibility{Reason: ReasonNotCompleted}, nil
	case !b.CanReview:
		return b, Eligibility{Reason: ReasonReviewNotEnabled}, nil
	}
	exists, err := s.reviews.ExistsForBooking(ctx, b.ID)
	if err != nil {
		return b, Eligibility{}, fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return b, Eligibility{Reason: ReasonAlreadyReviewed}, nil
	}
	return b, Eligibility{Allowed: true}, nil
}

// SubmitReview stores a verified review for a completed booking and tells
// the restaurant owner.
func (s *ReviewService) SubmitReview(ctx context.Context, bookingID string, clientID uint64, rating int, comment string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, invalid("rating", "must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > maxReviewComment {
		return nil, invalid("comment", fmt.Sprintf("must be at most %d characters", maxReviewComment))
	}

	b, elig, err := s.gate(ctx, bookingID, clientID)
	if err != nil {
		return nil, err
	}
	if !elig.Allowed {
		return nil, forbidden(elig.Reason)
	}

	rv := &model.Review{
		ID:           uuid.NewString(),
		BookingID:    b.ID,
		RestaurantID: b.RestaurantID,
		ClientID:     clientID,
		Rating:       rating,
		Comment:      comment,
		IsVerified:   true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, forbidden(ReasonAlreadyReviewed)
		}
		return nil, fmt.Errorf("create review: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"booking_id":    b.ID,
		"restaurant_id": b.RestaurantID,
		"rating":        rating,
	}).Info("review submitted")

	if rest, err := s.restaurants.GetByID(ctx, b.RestaurantID); err == nil {
		ev := notify.Event{
			Type:        model.NotifyReviewReceived,
			RecipientID: rest.OwnerID,
			Title:       "New review",
			Body:        fmt.Sprintf("A guest rated their visit %d/5.", rating),
			BookingID:   b.ID,
			OccurredAt:  rv.CreatedAt,
		}
		if err := s.notifier.Dispatch(ctx, ev); err != nil {
			logrus.WithError(err).WithField("booking_id", b.ID).Warn("notification dispatch failed")
		}
	}
	return rv, nil
}

// ReplyToReview stores the restaurant owner's public answer.
func (s *ReviewService) ReplyToReview(ctx context.Context, actor model.Actor, reviewID, reply string) (*model.Review, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, invalid("reply", "is required")
	}
	if utf8.RuneCountInString(reply) > maxReviewReply {
		return nil, invalid("reply", fmt.Sprintf("must be at most %d characters", maxReviewReply))
	}
	rv, err := s.review(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	rest, err := s.restaurants.GetByID(ctx, rv.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("load restaurant: %w", err)
	}
	if actor.Role != model.RoleRestaurant || actor.UserID != rest.OwnerID {
		return nil, forbidden(ReasonNotOwner)
	}
	at := s.now().UTC()
	if err := s.reviews.SetReply(ctx, rv.ID, reply, at); err != nil {
		return nil, fmt.Errorf("save reply: %w", err)
	}
	rv.OwnerReply = &reply
	rv.RepliedAt = &at
	return rv, nil
}

// SetReviewHidden hides or restores a review.  Admin only.
func (s *ReviewService) SetReviewHidden(ctx context.Context, actor model.Actor, reviewID string, hidden bool) (*model.Review, error) {
	if actor.Role != model.RoleAdmin {
		return nil, forbidden(ReasonRoleNotAllowed)
	}
	rv, err := s.review(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if err := s.reviews.SetHidden(ctx, rv.ID, hidden); err != nil {
		return nil, fmt.Errorf("moderate review: %w", err)
	}
	rv.Hidden = hidden
	logrus.WithFields(logrus.Fields{"review_id": rv.ID, "hidden": hidden}).Info("review moderated")
	return rv, nil
}

// RestaurantReviews is the public review page of a restaurant.
type RestaurantReviews struct {
	Summary model.RatingSummary `json:"summary"`
	Items   []*model.Review     `json:"items"`
}

// ListRestaurantReviews returns the visible reviews and their rating summary.
func (s *ReviewService) ListRestaurantReviews(ctx context.Context, restaurantID uint64) (RestaurantReviews, error) {
	if _, err := s.restaurants.GetByID(ctx, restaurantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return RestaurantReviews{}, &NotFoundError{Entity: "restaurant", ID: fmt.Sprint(restaurantID)}
		}
		return RestaurantReviews{}, err
	}
	items, err := s.reviews.ListByRestaurant(ctx, restaurantID, false)
	if err != nil {
		return RestaurantReviews{}, err
	}
	sum, err := s.reviews.Summary(ctx, restaurantID)
	if err != nil {
		return RestaurantReviews{}, err
	}
	return RestaurantReviews{Summary: sum, Items: items}, nil
}

func (s *ReviewService) review(ctx context.Context, id string) (*model.Review, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalid("review_id", "is required")
	}
	rv, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "review", ID: id}
		}
		return nil, fmt.Errorf("load review: %w", err)
	}
	return rv, nil
}
