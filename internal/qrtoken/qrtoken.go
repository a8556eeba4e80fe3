// Package qrtoken issues and verifies the check-in token printed as a QR
// code on every booking.  The token is an HS256 JWT whose claims carry the
// booking, restaurant and client identifiers plus the issue time, so a
// scanned code can be verified without a database round trip before the
// booking is looked up.
package qrtoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/skip2/go-qrcode"
)

// ErrInvalidToken is returned for tokens that are malformed, signed with a
// different secret or missing identifiers.
var ErrInvalidToken = errors.New("invalid qr token")

// Payload is the information embedded in a QR token.
type Payload struct {
	BookingID    string
	RestaurantID uint64
	ClientID     uint64
	IssuedAt     time.Time
}

type claims struct {
	BookingID    string `json:"bid"`
	RestaurantID uint64 `json:"rid"`
	ClientID     uint64 `json:"cid"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies QR tokens with a single secret.
type Issuer struct {
	secret []byte
}

func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret)}
}

// Issue builds the signed token for p.  Booking ids are unique, so tokens
// are unique as well.
func (i *Issuer) Issue(p Payload) (string, error) {
	if p.BookingID == "" || p.RestaurantID == 0 || p.ClientID == 0 {
		return "", fmt.Errorf("qrtoken: incomplete payload %+v", p)
	}
	if p.IssuedAt.IsZero() {
		p.IssuedAt = time.Now()
	}
	c := claims{
		BookingID:    p.BookingID,
		RestaurantID: p.RestaurantID,
		ClientID:     p.ClientID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(p.IssuedAt.UTC()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
}

// Parse verifies the token signature and returns the embedded payload.
func (i *Issuer) Parse(raw string) (Payload, error) {
	var c claims
	tok, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return Payload{}, ErrInvalidToken
	}
	if c.BookingID == "" || c.RestaurantID == 0 || c.ClientID == 0 || c.IssuedAt == nil {
		return Payload{}, ErrInvalidToken
	}
	return Payload{
		BookingID:    c.BookingID,
		RestaurantID: c.RestaurantID,
		ClientID:     c.ClientID,
		IssuedAt:     c.IssuedAt.Time,
	}, nil
}

// PNG renders the token as a square QR code image of size pixels.
func PNG(token string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(token, qrcode.Medium, size)
}
