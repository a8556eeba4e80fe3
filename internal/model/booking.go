package model

import "time"

// BookingStatus is the lifecycle state of a table booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Valid reports whether s is one of the four known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

// Booking is one reservation request made by a client at a restaurant.
// It corresponds to a row in the `bookings` table.  Date and Time are kept
// as the strings the client submitted (YYYY-MM-DD and HH:MM) because the
// reservation is expressed in the restaurant's local time.
type Booking struct {
	ID              string        `json:"id"`               // bookings.id (uuid)
	ClientID        uint64        `json:"client_id"`        // bookings.client_id
	RestaurantID    uint64        `json:"restaurant_id"`    // bookings.restaurant_id
	Date            string        `json:"date"`             // bookings.booking_date
	Time            string        `json:"time"`             // bookings.booking_time
	GuestCount      int           `json:"guest_count"`      // bookings.guest_count
	Status          BookingStatus `json:"status"`           // bookings.status
	QRToken         string        `json:"qr_token"`         // bookings.qr_token (unique)
	HasArrived      bool          `json:"has_arrived"`      // bookings.has_arrived
	ArrivedAt       *time.Time    `json:"arrived_at,omitempty"`
	CanReview       bool          `json:"can_review"`       // bookings.can_review
	SpecialRequests *string       `json:"special_requests,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// ReservedAt combines Date and Time in the given location.  ok is false when
// either part cannot be parsed.
func (b Booking) ReservedAt(loc *time.Location) (t time.Time, ok bool) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", b.Date+" "+b.Time, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
