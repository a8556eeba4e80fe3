package service

import (
	"fmt"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

// NotFoundError reports an identifier that resolves to nothing.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// IllegalTransitionError reports a status change the lifecycle forbids.
type IllegalTransitionError struct {
	From model.BookingStatus
	To   model.BookingStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot move booking from %s to %s", e.From, e.To)
}

// InvalidStateError reports an operation attempted while the booking is in
// an incompatible state.
type InvalidStateError struct {
	Op     string
	Status model.BookingStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s not allowed while booking is %s", e.Op, e.Status)
}

// Review gate and authorization reasons carried by ForbiddenError.
const (
	ReasonBookingNotFound  = "booking_not_found"
	ReasonClientMismatch   = "client_mismatch"
	ReasonNotCompleted     = "not_completed"
	ReasonReviewNotEnabled = "review_not_enabled"
	ReasonAlreadyReviewed  = "already_reviewed"
	ReasonNotOwner         = "not_owner"
	ReasonRoleNotAllowed   = "role_not_allowed"
)

var reasonText = map[string]string{
	ReasonBookingNotFound:  "booking does not exist",
	ReasonClientMismatch:   "booking belongs to another client",
	ReasonNotCompleted:     "booking is not completed",
	ReasonReviewNotEnabled: "reviews are not enabled for this booking",
	ReasonAlreadyReviewed:  "booking has already been reviewed",
	ReasonNotOwner:         "resource belongs to another account",
	ReasonRoleNotAllowed:   "role may not perform this action",
}

// ForbiddenError reports a denied action and the precondition that failed.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	if txt, ok := reasonText[e.Reason]; ok {
		return "forbidden: " + txt
	}
	return "forbidden: " + e.Reason
}

// ConflictError reports a write that lost a race with another writer.
type ConflictError struct {
	Entity string
	ID     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently, reload and retry", e.Entity, e.ID)
}

func invalid(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }

func forbidden(reason string) error { return &ForbiddenError{Reason: reason} }
