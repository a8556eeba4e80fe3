package qrtoken

import (
	"bytes"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParseRoundTrip(t *testing.T) {
	iss := NewIssuer("qr-secret")
	issued := time.Date(2025, 3, 1, 18, 30, 15, 0, time.UTC)

	tok, err := iss.Issue(Payload{BookingID: "b-1", RestaurantID: 7, ClientID: 42, IssuedAt: issued})
	require.NoError(t, err)

	p, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "b-1", p.BookingID)
	assert.Equal(t, uint64(7), p.RestaurantID)
	assert.Equal(t, uint64(42), p.ClientID)
	assert.Equal(t, issued.Unix(), p.IssuedAt.Unix())
}

func TestTokensDifferPerBooking(t *testing.T) {
	iss := NewIssuer("qr-secret")
	now := time.Now()
	a, err := iss.Issue(Payload{BookingID: "b-1", RestaurantID: 1, ClientID: 2, IssuedAt: now})
	require.NoError(t, err)
	b, err := iss.Issue(Payload{BookingID: "b-2", RestaurantID: 1, ClientID: 2, IssuedAt: now})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestIssueRejectsIncompletePayload(t *testing.T) {
	iss := NewIssuer("qr-secret")
	tests := []struct {
		name string
		p    Payload
	}{
		{"no booking", Payload{RestaurantID: 1, ClientID: 2}},
		{"no restaurant", Payload{BookingID: "b", ClientID: 2}},
		{"no client", Payload{BookingID: "b", RestaurantID: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := iss.Issue(tt.p)
			assert.Error(t, err)
		})
	}
}

func TestParseRejectsForeignTokens(t *testing.T) {
	iss := NewIssuer("qr-secret")
	tok, err := iss.Issue(Payload{BookingID: "b-1", RestaurantID: 7, ClientID: 42})
	require.NoError(t, err)

	_, err = NewIssuer("other-secret").Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.Parse(tok + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"bid": "b-1", "rid": 7, "cid": 42, "iat": time.Now().Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = iss.Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPNG(t *testing.T) {
	img, err := PNG("token-value", 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("\x89PNG")))
}
