package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/qrtoken"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/service"
	st "github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/service/servicetest"
)

func isValidation(field string) func(t *testing.T, err error) {
	return func(t *testing.T, err error) {
		t.Helper()
		var ve *service.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, field, ve.Field)
	}
}

func isNotFound(t *testing.T, err error) {
	t.Helper()
	var nf *service.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func isForbidden(reason string) func(t *testing.T, err error) {
	return func(t *testing.T, err error) {
		t.Helper()
		var fe *service.ForbiddenError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, reason, fe.Reason)
	}
}

func qrPayload(bookingID string) qrtoken.Payload {
	return qrtoken.Payload{
		BookingID:    bookingID,
		RestaurantID: st.RestaurantID,
		ClientID:     st.ClientID,
		IssuedAt:     time.Now(),
	}
}
