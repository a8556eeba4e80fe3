package model

import "time"

// Payment is a subscription fee paid by a restaurant to the platform.
type Payment struct {
	ID           uint64    `json:"id"`
	RestaurantID uint64    `json:"restaurant_id"`
	AmountCents  uint64    `json:"amount_cents"`
	Description  string    `json:"description"`
	PaidAt       time.Time `json:"paid_at"`
}

// MonthlyRevenue is one row of the admin revenue dashboard.
type MonthlyRevenue struct {
	Month       string `json:"month"` // YYYY-MM
	AmountCents uint64 `json:"amount_cents"`
	Payments    int    `json:"payments"`
}

// RevenueReport is returned by the admin dashboard endpoint.
type RevenueReport struct {
	From             time.Time               `json:"from"`
	To               time.Time               `json:"to"`
	TotalCents       uint64                  `json:"total_cents"`
	Months           []MonthlyRevenue        `json:"months"`
	BookingsByStatus map[BookingStatus]int64 `json:"bookings_by_status"`
}
