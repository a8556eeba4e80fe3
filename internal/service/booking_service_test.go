package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/service"
	st "github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/service/servicetest"
)

func TestCreateBooking(t *testing.T) {
	env := st.New()
	ctx := context.Background()

	b, err := env.BookingSvc.CreateBooking(ctx, service.CreateBookingInput{
		ClientID: st.ClientID, RestaurantID: st.RestaurantID,
		Date: "2025-03-01", Time: "20:00", GuestCount: 2, SpecialRequests: "  celiac, no cross contact ",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, model.BookingPending, b.Status)
	assert.False(t, b.HasArrived)
	assert.False(t, b.CanReview)
	require.NotNil(t, b.SpecialRequests)
	assert.Equal(t, "celiac, no cross contact", *b.SpecialRequests)

	p, err := env.QR.Parse(b.QRToken)
	require.NoError(t, err)
	assert.Equal(t, b.ID, p.BookingID)
	assert.Equal(t, st.RestaurantID, p.RestaurantID)
	assert.Equal(t, st.ClientID, p.ClientID)
	assert.Equal(t, st.Start.Unix(), p.IssuedAt.Unix())

	events := env.Notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.NotifyBookingCreated, events[0].Type)
	assert.Equal(t, st.OwnerID, events[0].RecipientID)
	assert.Equal(t, b.ID, events[0].BookingID)
}

func TestCreateBookingTokensAreUnique(t *testing.T) {
	env := st.New()
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		b, err := env.Book(context.Background())
		require.NoError(t, err)
		assert.False(t, seen[b.QRToken], "token reused")
		seen[b.QRToken] = true
	}
}

func TestCreateBookingRejects(t *testing.T) {
	valid := service.CreateBookingInput{
		ClientID: st.ClientID, RestaurantID: st.RestaurantID, Date: "2025-03-01", Time: "20:00", GuestCount: 2,
	}
	tests := []struct {
		name   string
		mutate func(*service.CreateBookingInput)
		check  func(t *testing.T, err error)
	}{
		{"missing client", func(in *service.CreateBookingInput) { in.ClientID = 0 }, isValidation("client_id")},
		{"missing restaurant", func(in *service.CreateBookingInput) { in.RestaurantID = 0 }, isValidation("restaurant_id")},
		{"bad date", func(in *service.CreateBookingInput) { in.Date = "01/03/2025" }, isValidation("date")},
		{"bad time", func(in *service.CreateBookingInput) { in.Time = "8pm" }, isValidation("time")},
		{"short time", func(in *service.CreateBookingInput) { in.Time = "9:30" }, isValidation("time")},
		{"past", func(in *service.CreateBookingInput) { in.Date = "2025-01-01" }, isValidation("date")},
		{"no guests", func(in *service.CreateBookingInput) { in.GuestCount = 0 }, isValidation("guest_count")},
		{"too many guests", func(in *service.CreateBookingInput) { in.GuestCount = 21 }, isValidation("guest_count")},
		{"long requests", func(in *service.CreateBookingInput) { in.SpecialRequests = strings.Repeat("x", 501) }, isValidation("special_requests")},
		{"unknown client", func(in *service.CreateBookingInput) { in.ClientID = 555 }, isNotFound},
		{"unknown restaurant", func(in *service.CreateBookingInput) { in.RestaurantID = 555 }, isNotFound},
		{"owner cannot book", func(in *service.CreateBookingInput) { in.ClientID = st.OwnerID }, isForbidden(service.ReasonRoleNotAllowed)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := st.New()
			in := valid
			tt.mutate(&in)
			b, err := env.BookingSvc.CreateBooking(context.Background(), in)
			assert.Nil(t, b)
			tt.check(t, err)
			assert.Empty(t, env.Notifier.Events())
		})
	}
}

func TestTransitionTable(t *testing.T) {
	all := []model.BookingStatus{model.BookingPending, model.BookingConfirmed, model.BookingCancelled, model.BookingCompleted}
	legal := map[[2]model.BookingStatus]bool{
		{model.BookingPending, model.BookingConfirmed}:   true,
		{model.BookingPending, model.BookingCancelled}:   true,
		{model.BookingConfirmed, model.BookingCancelled}: true,
		{model.BookingConfirmed, model.BookingCompleted}: true,
	}
	for _, from := range all {
		for _, to := range all {
			if from == to {
				continue
			}
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				env := st.New()
				ctx := context.Background()
				b, err := env.Book(ctx)
				require.NoError(t, err)
				env.Bookings.ForceStatus(b.ID, from)

				got, err := env.BookingSvc.TransitionStatus(ctx, st.Owner, b.ID, to)
				if legal[[2]model.BookingStatus{from, to}] {
					require.NoError(t, err)
					assert.Equal(t, to, got.Status)
					assert.Equal(t, to == model.BookingCompleted, got.CanReview)
					return
				}
				var ite *service.IllegalTransitionError
				require.ErrorAs(t, err, &ite)
				assert.Equal(t, from, ite.From)
				assert.Equal(t, to, ite.To)
				assert.Contains(t, err.Error(), string(from))
				assert.Contains(t, err.Error(), string(to))
				assert.False(t, service.CanTransition(from, to))
			})
		}
	}
}

func TestTransitionSameStatusIsNoop(t *testing.T) {
	env := st.New()
	ctx := context.Background()
	b, err := env.Book(ctx)
	require.NoError(t, err)
	_, err = env.BookingSvc.TransitionStatus(ctx, st.Owner, b.ID, model.BookingConfirmed)
	require.NoError(t, err)
	env.Notifier.Reset()

	got, err := env.BookingSvc.TransitionStatus(ctx, st.Owner, b.ID, model.BookingConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, got.Status)
	assert.Empty(t, env.Notifier.Events())

	// Terminal states are also accepted as a no-op.
	env.Bookings.ForceStatus(b.ID, model.BookingCancelled)
	got, err = env.BookingSvc.TransitionStatus(ctx, st.Owner, b.ID, model.BookingCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, got.Status)
}

func TestTransitionNotifications(t *testing.T) {
	tests := []struct {
		name      string
		actor     model.Actor
		setup     model.BookingStatus
		to        model.BookingStatus
		recipient uint64
		typ       string
	}{
		{"owner confirms", st.Owner, model.BookingPending, model.BookingConfirmed, st.ClientID, model.NotifyBookingConfirmed},
		{"owner rejects", st.Owner, model.BookingPending, model.BookingCancelled, st.ClientID, model.NotifyBookingCancelled},
		{"client cancels pending", st.Client, model.BookingPending, model.BookingCancelled, st.OwnerID, model.NotifyBookingCancelled},
		{"client cancels confirmed", st.Client, model.BookingConfirmed, model.BookingCancelled, st.OwnerID, model.NotifyBookingCancelled},
		{"owner completes", st.Owner, model.BookingConfirmed, model.BookingCompleted, st.ClientID, model.NotifyBookingCompleted},
		{"system expires", model.SystemActor, model.BookingPending, model.BookingCancelled, st.ClientID, model.NotifyBookingCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := st.New()
			ctx := context.Background()
			b, err := env.Book(ctx)
			require.NoError(t, err)
			env.Bookings.ForceStatus(b.ID, tt.setup)
			env.Notifier.Reset()

			_, err = env.BookingSvc.TransitionStatus(ctx, tt.actor, b.ID, tt.to)
			require.NoError(t, err)
			events := env.Notifier.Events()
			require.Len(t, events, 1)
			assert.Equal(t, tt.recipient, events[0].RecipientID)
			assert.Equal(t, tt.typ, events[0].Type)
			assert.Equal(t, b.ID, events[0].BookingID)
		})
	}
}

func TestTransitionAuthorization(t *testing.T) {
	tests := []struct {
		name   string
		actor  model.Actor
		to     model.BookingStatus
		reason string
	}{
		{"client cannot confirm", st.Client, model.BookingConfirmed, service.ReasonRoleNotAllowed},
		{"other client cannot cancel", st.OtherClient, model.BookingCancelled, service.ReasonNotOwner},
		{"other owner cannot confirm", st.OtherOwner, model.BookingConfirmed, service.ReasonNotOwner},
		{"admin is not a party", st.Admin, model.BookingCancelled, service.ReasonNotOwner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := st.New()
			ctx := context.Background()
			b, err := env.Book(ctx)
			require.NoError(t, err)

			_, err = env.BookingSvc.TransitionStatus(ctx, tt.actor, b.ID, tt.to)
			isForbidden(tt.reason)(t, err)
			cur, _ := env.Bookings.GetByID(ctx, b.ID)
			assert.Equal(t, model.BookingPending, cur.Status)
		})
	}
}

func TestTransitionUnknownStatusAndBooking(t *testing.T) {
	env := st.New()
	ctx := context.Background()
	b, err := env.Book(ctx)
	require.NoError(t, err)

	_, err = env.BookingSvc.TransitionStatus(ctx, st.Owner, b.ID, "seated")
	isValidation("status")(t, err)

	_, err = env.BookingSvc.TransitionStatus(ctx, st.Owner, "nope", model.BookingConfirmed)
	isNotFound(t, err)
}

func TestTransitionConflict(t *testing.T) {
	env := st.New()
	ctx := context.Background()
	b, err := env.Book(ctx)
	require.NoError(t, err)

	env.Bookings.BeforeUpdate = func(id string) {
		env.Bookings.BeforeUpdate = nil
		env.Bookings.ForceStatus(id, model.BookingCancelled)
	}
	_, err = env.BookingSvc.TransitionStatus(ctx, st.Owner, b.ID, model.BookingConfirmed)
	var ce *service.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, b.ID, ce.ID)

	cur, _ := env.Bookings.GetByID(ctx, b.ID)
	assert.Equal(t, model.BookingCancelled, cur.Status)
}

func TestNotifierFailureDoesNotFailTransition(t *testing.T) {
	env := st.New()
	env.Notifier.Err = errors.New("broker down")
	ctx := context.Background()
	b, err := env.Book(ctx)
	require.NoError(t, err)

	got, err := env.BookingSvc.TransitionStatus(ctx, st.Owner, b.ID, model.BookingConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, got.Status)
}

func TestScanArrival(t *testing.T) {
	env := st.New()
	ctx := context.Background()
	b, err := env.Book(ctx)
	require.NoError(t, err)

	_, err = env.BookingSvc.ScanArrival(ctx, st.Owner, b.QRToken)
	var ise *service.InvalidStateError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, model.BookingPending, ise.Status)

	_, err = env.BookingSvc.TransitionStatus(ctx, st.Owner, b.ID, model.BookingConfirmed)
	require.NoError(t, err)

	_, err = env.BookingSvc.ScanArrival(ctx, st.OtherOwner, b.QRToken)
	isForbidden(service.ReasonNotOwner)(t, err)

	_, err = env.BookingSvc.ScanArrival(ctx, st.Client, b.QRToken)
	isForbidden(service.ReasonNotOwner)(t, err)

	got, err := env.BookingSvc.ScanArrival(ctx, st.Owner, b.QRToken)
	require.NoError(t, err)
	assert.True(t, got.HasArrived)
	assert.Equal(t, model.BookingConfirmed, got.Status)
	require.NotNil(t, got.ArrivedAt)
	first := *got.ArrivedAt

	env.Clock.Advance(time.Minute)
	again, err := env.BookingSvc.ScanArrival(ctx, st.Owner, b.QRToken)
	require.NoError(t, err)
	assert.True(t, again.HasArrived)
	require.NotNil(t, again.ArrivedAt)
	assert.Equal(t, first, *again.ArrivedAt)
}

func TestScanArrivalRejectsTerminalBookings(t *testing.T) {
	for _, status := range []model.BookingStatus{model.BookingCancelled, model.BookingCompleted} {
		t.Run(string(status), func(t *testing.T) {
			env := st.New()
			ctx := context.Background()
			b, err := env.Book(ctx)
			require.NoError(t, err)
			env.Bookings.ForceStatus(b.ID, status)

			_, err = env.BookingSvc.ScanArrival(ctx, st.Owner, b.QRToken)
			var ise *service.InvalidStateError
			require.ErrorAs(t, err, &ise)
			cur, _ := env.Bookings.GetByID(ctx, b.ID)
			assert.False(t, cur.HasArrived)
		})
	}
}

func TestScanArrivalUnknownTokens(t *testing.T) {
	env := st.New()
	ctx := context.Background()

	_, err := env.BookingSvc.ScanArrival(ctx, st.Owner, "garbage")
	isNotFound(t, err)

	// Well-formed token for a booking that was never stored.
	tok, err := env.QR.Issue(qrPayload("ghost"))
	require.NoError(t, err)
	_, err = env.BookingSvc.ScanArrival(ctx, st.Owner, tok)
	isNotFound(t, err)

	_, err = env.BookingSvc.ScanArrival(ctx, st.Owner, "  ")
	isValidation("qr_token")(t, err)
}

func TestGetBookingVisibility(t *testing.T) {
	env := st.New()
	ctx := context.Background()
	b, err := env.Book(ctx)
	require.NoError(t, err)

	for _, a := range []model.Actor{st.Client, st.Owner, st.Admin} {
		got, err := env.BookingSvc.GetBooking(ctx, a, b.ID)
		require.NoError(t, err)
		assert.Equal(t, b.ID, got.ID)
	}
	for _, a := range []model.Actor{st.OtherClient, st.OtherOwner} {
		_, err := env.BookingSvc.GetBooking(ctx, a, b.ID)
		isForbidden(service.ReasonNotOwner)(t, err)
	}
}

func TestQRCode(t *testing.T) {
	env := st.New()
	ctx := context.Background()
	b, err := env.Book(ctx)
	require.NoError(t, err)

	png, err := env.BookingSvc.QRCode(ctx, st.Client, b.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))

	_, err = env.BookingSvc.QRCode(ctx, st.Owner, b.ID, 0)
	isForbidden(service.ReasonClientMismatch)(t, err)
}

func TestListRestaurantBookings(t *testing.T) {
	env := st.New()
	ctx := context.Background()
	b1, err := env.Book(ctx)
	require.NoError(t, err)
	_, err = env.Book(ctx)
	require.NoError(t, err)
	_, err = env.BookingSvc.TransitionStatus(ctx, st.Owner, b1.ID, model.BookingConfirmed)
	require.NoError(t, err)

	all, err := env.BookingSvc.ListRestaurantBookings(ctx, st.OwnerID, service.RestaurantBookingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	confirmed, err := env.BookingSvc.ListRestaurantBookings(ctx, st.OwnerID, service.RestaurantBookingFilter{Status: "CONFIRMED"})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, b1.ID, confirmed[0].ID)

	none, err := env.BookingSvc.ListRestaurantBookings(ctx, st.OtherOwnerID, service.RestaurantBookingFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = env.BookingSvc.ListRestaurantBookings(ctx, st.OwnerID, service.RestaurantBookingFilter{Status: "seated"})
	isValidation("status")(t, err)

	_, err = env.BookingSvc.ListRestaurantBookings(ctx, st.ClientID, service.RestaurantBookingFilter{})
	isNotFound(t, err)

	mine, err := env.BookingSvc.ListClientBookings(ctx, st.ClientID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestExpirePending(t *testing.T) {
	env := st.New()
	ctx := context.Background()
	stale, err := env.Book(ctx) // 2025-03-01 20:00
	require.NoError(t, err)
	later, err := env.BookingSvc.CreateBooking(ctx, service.CreateBookingInput{
		ClientID: st.ClientID, RestaurantID: st.RestaurantID, Date: "2025-03-05", Time: "20:00", GuestCount: 2,
	})
	require.NoError(t, err)
	confirmed, err := env.Book(ctx)
	require.NoError(t, err)
	_, err = env.BookingSvc.TransitionStatus(ctx, st.Owner, confirmed.ID, model.BookingConfirmed)
	require.NoError(t, err)

	env.Clock.Advance(time.Date(2025, 3, 1, 21, 30, 0, 0, time.UTC).Sub(st.Start))
	env.Notifier.Reset()

	n, err := env.BookingSvc.ExpirePending(ctx, time.Hour, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cur, _ := env.Bookings.GetByID(ctx, stale.ID)
	assert.Equal(t, model.BookingCancelled, cur.Status)
	cur, _ = env.Bookings.GetByID(ctx, later.ID)
	assert.Equal(t, model.BookingPending, cur.Status)
	cur, _ = env.Bookings.GetByID(ctx, confirmed.ID)
	assert.Equal(t, model.BookingConfirmed, cur.Status)

	events := env.Notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, st.ClientID, events[0].RecipientID)
	assert.Equal(t, model.NotifyBookingCancelled, events[0].Type)
}
