package model

import "time"

// Review is a client's feedback for one completed booking.  At most one
// review exists per booking (unique index on reviews.booking_id).
type Review struct {
	ID           string     `json:"id"`
	BookingID    string     `json:"booking_id"`
	RestaurantID uint64     `json:"restaurant_id"`
	ClientID     uint64     `json:"client_id"`
	ClientName   string     `json:"client_name,omitempty"`
	Rating       int        `json:"rating"`
	Comment      string     `json:"comment"`
	IsVerified   bool       `json:"is_verified"`
	OwnerReply   *string    `json:"owner_reply,omitempty"`
	RepliedAt    *time.Time `json:"replied_at,omitempty"`
	Hidden       bool       `json:"hidden"`
	CreatedAt    time.Time  `json:"created_at"`
}

// RatingSummary aggregates the visible reviews of a restaurant.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
