package model

import "time"

// Notification types emitted by the booking lifecycle and review flow.
const (
	NotifyBookingCreated   = "booking_created"
	NotifyBookingConfirmed = "booking_confirmed"
	NotifyBookingCancelled = "booking_cancelled"
	NotifyBookingCompleted = "booking_completed"
	NotifyReviewReceived   = "review_received"
)

// Notification is a message addressed to a single user.  It is persisted in
// the `notifications` table and pushed over the user's realtime channel.
type Notification struct {
	ID          string    `json:"id"`
	RecipientID uint64    `json:"recipient_id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	BookingID   *string   `json:"booking_id,omitempty"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}
