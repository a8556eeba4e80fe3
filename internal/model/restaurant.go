package model

import "time"

// Restaurant is a gluten-free venue managed by a RESTAURANT account.  Each
// owner manages exactly one restaurant.
type Restaurant struct {
	ID          uint64    `json:"id"`
	OwnerID     uint64    `json:"owner_id"`
	Name        string    `json:"name"`
	City        string    `json:"city"`
	Address     string    `json:"address"`
	Cuisine     string    `json:"cuisine"`
	Description string    `json:"description"`
	Phone       string    `json:"phone"`
	Certified   bool      `json:"certified"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MenuItem is a dish offered by a restaurant.
type MenuItem struct {
	ID           uint64    `json:"id"`
	RestaurantID uint64    `json:"restaurant_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PriceCents   uint32    `json:"price_cents"`
	GlutenFree   bool      `json:"gluten_free"`
	ImageURL     *string   `json:"image_url,omitempty"`
	Available    bool      `json:"available"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Favorite marks a restaurant saved by a client.
type Favorite struct {
	ClientID   uint64     `json:"client_id"`
	Restaurant Restaurant `json:"restaurant"`
	CreatedAt  time.Time  `json:"created_at"`
}
