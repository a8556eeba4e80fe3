package service_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/service"
	st "github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/service/servicetest"
)

// TestLifecycleInvariantsUnderRandomOperations drives bookings with random
// transitions, scans and review attempts and checks the lifecycle
// invariants after every step.
func TestLifecycleInvariantsUnderRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(20250301))
	statuses := []model.BookingStatus{model.BookingPending, model.BookingConfirmed, model.BookingCancelled, model.BookingCompleted}
	actors := []model.Actor{st.Owner, st.Client, st.OtherOwner, st.OtherClient}

	for run := 0; run < 40; run++ {
		env := st.New()
		ctx := context.Background()
		b, err := env.Book(ctx)
		require.NoError(t, err)

		history := []model.BookingStatus{model.BookingPending}
		reviews := 0
		for step := 0; step < 25; step++ {
			before, _ := env.Bookings.GetByID(ctx, b.ID)
			switch rng.Intn(3) {
			case 0:
				to := statuses[rng.Intn(len(statuses))]
				_, err := env.BookingSvc.TransitionStatus(ctx, actors[rng.Intn(len(actors))], b.ID, to)
				var ite *service.IllegalTransitionError
				if errors.As(err, &ite) {
					assert.False(t, service.CanTransition(before.Status, to))
				}
			case 1:
				_, err := env.BookingSvc.ScanArrival(ctx, actors[rng.Intn(len(actors))], b.QRToken)
				var ise *service.InvalidStateError
				if before.Status != model.BookingConfirmed && err == nil {
					t.Fatalf("scan succeeded while %s", before.Status)
				}
				if errors.As(err, &ise) {
					after, _ := env.Bookings.GetByID(ctx, b.ID)
					assert.Equal(t, before.HasArrived, after.HasArrived)
				}
			case 2:
				if _, err := env.ReviewSvc.SubmitReview(ctx, b.ID, st.ClientID, 1+rng.Intn(5), "r"); err == nil {
					reviews++
				}
			}

			cur, _ := env.Bookings.GetByID(ctx, b.ID)
			assert.Equal(t, cur.Status == model.BookingCompleted, cur.CanReview, "canReview iff completed")
			if cur.HasArrived {
				assert.NotEqual(t, model.BookingPending, cur.Status, "arrival recorded on a pending booking")
			}
			last := history[len(history)-1]
			if cur.Status != last {
				assert.True(t, service.CanTransition(last, cur.Status), "illegal edge %s -> %s", last, cur.Status)
				history = append(history, cur.Status)
			}
			assert.LessOrEqual(t, reviews, 1)
		}
	}
}
