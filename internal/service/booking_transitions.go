package service

import (
	"fmt"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/notify"
)

// edge is a (from, to) pair of the booking lifecycle.
type edge struct {
	from, to model.BookingStatus
}

// transitionRule holds everything that must happen when an edge is taken.
// canReview is persisted in the same UPDATE as the status; notices run
// after the write succeeded.
type transitionRule struct {
	canReview bool
	notices   func(b *model.Booking, r *model.Restaurant, actor model.Actor) []notify.Event
}

// transitions is the only place lifecycle edges and their side effects are
// declared.  An edge missing from the map is illegal.
var transitions = map[edge]transitionRule{
	{model.BookingPending, model.BookingConfirmed}: {
		notices: func(b *model.Booking, r *model.Restaurant, _ model.Actor) []notify.Event {
			return []notify.Event{{
				Type:        model.NotifyBookingConfirmed,
				RecipientID: b.ClientID,
				Title:       "Booking confirmed",
				Body:        fmt.Sprintf("%s confirmed your table for %d on %s at %s.", r.Name, b.GuestCount, b.Date, b.Time),
			}}
		},
	},
	{model.BookingPending, model.BookingCancelled}:   {notices: cancelNotice},
	{model.BookingConfirmed, model.BookingCancelled}: {notices: cancelNotice},
	{model.BookingConfirmed, model.BookingCompleted}: {
		canReview: true,
		notices: func(b *model.Booking, r *model.Restaurant, _ model.Actor) []notify.Event {
			return []notify.Event{{
				Type:        model.NotifyBookingCompleted,
				RecipientID: b.ClientID,
				Title:       "How was your meal?",
				Body:        fmt.Sprintf("Your visit to %s is complete. You can now leave a review.", r.Name),
			}}
		},
	},
}

// cancelNotice tells the party that did not cancel.
func cancelNotice(b *model.Booking, r *model.Restaurant, actor model.Actor) []notify.Event {
	if actor.UserID == b.ClientID && actor.Role == model.RoleClient {
		return []notify.Event{{
			Type:        model.NotifyBookingCancelled,
			RecipientID: r.OwnerID,
			Title:       "Booking cancelled",
			Body:        fmt.Sprintf("The booking for %d on %s at %s was cancelled by the client.", b.GuestCount, b.Date, b.Time),
		}}
	}
	body := fmt.Sprintf("%s cancelled your booking for %s at %s.", r.Name, b.Date, b.Time)
	if actor.IsSystem() {
		body = fmt.Sprintf("Your request at %s for %s at %s expired without confirmation.", r.Name, b.Date, b.Time)
	}
	return []notify.Event{{
		Type:        model.NotifyBookingCancelled,
		RecipientID: b.ClientID,
		Title:       "Booking cancelled",
		Body:        body,
	}}
}

// lookupTransition returns the rule for from -> to, or an
// IllegalTransitionError naming both states.
func lookupTransition(from, to model.BookingStatus) (transitionRule, error) {
	rule, ok := transitions[edge{from, to}]
	if !ok {
		return transitionRule{}, &IllegalTransitionError{From: from, To: to}
	}
	return rule, nil
}

// CanTransition reports whether the lifecycle allows from -> to.
func CanTransition(from, to model.BookingStatus) bool {
	_, ok := transitions[edge{from, to}]
	return ok
}
