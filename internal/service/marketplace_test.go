package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/repository"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/service"
	st "github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/service/servicetest"
)

func TestRestaurantProfile(t *testing.T) {
	env := st.New()
	ctx := context.Background()
	const newOwner uint64 = 50

	_, err := env.RestaurantSvc.Create(ctx, newOwner, service.RestaurantInput{City: "Napoli"})
	isValidation("name")(t, err)

	r, err := env.RestaurantSvc.Create(ctx, newOwner, service.RestaurantInput{
		Name: "  Celiachia Felice ", City: "Napoli", Cuisine: "Pizza",
	})
	require.NoError(t, err)
	assert.Equal(t, "Celiachia Felice", r.Name)
	assert.Equal(t, "pizza", r.Cuisine)

	_, err = env.RestaurantSvc.Create(ctx, newOwner, service.RestaurantInput{Name: "Second", City: "Napoli"})
	var ce *service.ConflictError
	assert.ErrorAs(t, err, &ce)

	upd, err := env.RestaurantSvc.Update(ctx, newOwner, service.RestaurantInput{Name: "Renamed", City: "Napoli", Certified: true})
	require.NoError(t, err)
	assert.True(t, upd.Certified)

	_, err = env.RestaurantSvc.Update(ctx, 777, service.RestaurantInput{Name: "x", City: "y"})
	isNotFound(t, err)
}

func TestRestaurantSearch(t *testing.T) {
	env := st.New()
	ctx := context.Background()

	all, err := env.RestaurantSvc.Search(ctx, repository.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Certified, "certified first")

	certified := false
	out, err := env.RestaurantSvc.Search(ctx, repository.SearchFilter{Certified: &certified})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, st.OtherRestaurantID, out[0].ID)

	out, err = env.RestaurantSvc.Search(ctx, repository.SearchFilter{Query: "pasta", Cuisine: " Italian "})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, st.RestaurantID, out[0].ID)

	_, err = env.RestaurantSvc.Search(ctx, repository.SearchFilter{Limit: -1})
	isValidation("limit")(t, err)
}

func TestMenuManagement(t *testing.T) {
	env := st.New()
	ctx := context.Background()
	off := false

	item, err := env.MenuSvc.Add(ctx, st.OwnerID, service.MenuItemInput{Name: "Lasagne", PriceCents: 1450})
	require.NoError(t, err)
	assert.True(t, item.GlutenFree)
	assert.True(t, item.Available)
	assert.Equal(t, st.RestaurantID, item.RestaurantID)

	_, err = env.MenuSvc.Add(ctx, st.OwnerID, service.MenuItemInput{Name: "", PriceCents: 1})
	isValidation("name")(t, err)
	_, err = env.MenuSvc.Add(ctx, st.OwnerID, service.MenuItemInput{Name: "x", PriceCents: -5})
	isValidation("price_cents")(t, err)
	bad := "ftp://example.com/a.png"
	_, err = env.MenuSvc.Add(ctx, st.OwnerID, service.MenuItemInput{Name: "x", ImageURL: &bad})
	isValidation("image_url")(t, err)

	_, err = env.MenuSvc.Update(ctx, st.OwnerID, item.ID, service.MenuItemInput{Name: "Lasagne", PriceCents: 1500, Available: &off})
	require.NoError(t, err)

	public, err := env.MenuSvc.Public(ctx, st.RestaurantID)
	require.NoError(t, err)
	assert.Empty(t, public)
	own, err := env.MenuSvc.Own(ctx, st.OwnerID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, uint32(1500), own[0].PriceCents)

	err = env.MenuSvc.Delete(ctx, st.OtherOwnerID, item.ID)
	isNotFound(t, err)
	require.NoError(t, env.MenuSvc.Delete(ctx, st.OwnerID, item.ID))
}

func TestFavorites(t *testing.T) {
	env := st.New()
	ctx := context.Background()

	require.NoError(t, env.FavoriteSvc.Add(ctx, st.ClientID, st.RestaurantID))
	require.NoError(t, env.FavoriteSvc.Add(ctx, st.ClientID, st.RestaurantID))
	isNotFound(t, env.FavoriteSvc.Add(ctx, st.ClientID, 4040))

	favs, err := env.FavoriteSvc.List(ctx, st.ClientID)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "Trattoria Senza Glutine", favs[0].Restaurant.Name)

	require.NoError(t, env.FavoriteSvc.Remove(ctx, st.ClientID, st.RestaurantID))
	favs, err = env.FavoriteSvc.List(ctx, st.ClientID)
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestNotificationInbox(t *testing.T) {
	env := st.New()
	ctx := context.Background()
	for _, id := range []string{"n1", "n2"} {
		require.NoError(t, env.Notifications.Create(ctx, &model.Notification{ID: id, RecipientID: st.ClientID, Type: "x"}))
	}

	require.NoError(t, env.NotificationSvc.MarkRead(ctx, st.ClientID, "n1"))
	isNotFound(t, env.NotificationSvc.MarkRead(ctx, st.OtherClientID, "n2"))

	unread, err := env.NotificationSvc.List(ctx, st.ClientID, true, 0)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "n2", unread[0].ID)

	n, err := env.NotificationSvc.MarkAllRead(ctx, st.ClientID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRevenueReport(t *testing.T) {
	env := st.New()
	ctx := context.Background()
	jan := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)

	for _, in := range []service.PaymentInput{
		{RestaurantID: st.RestaurantID, AmountCents: 2900, PaidAt: &jan},
		{RestaurantID: st.OtherRestaurantID, AmountCents: 2900, PaidAt: &jan},
		{RestaurantID: st.RestaurantID, AmountCents: 4900, PaidAt: &feb},
	} {
		_, err := env.AdminSvc.RecordPayment(ctx, in)
		require.NoError(t, err)
	}
	_, err := env.AdminSvc.RecordPayment(ctx, service.PaymentInput{RestaurantID: st.RestaurantID})
	isValidation("amount_cents")(t, err)
	_, err = env.AdminSvc.RecordPayment(ctx, service.PaymentInput{RestaurantID: 31337, AmountCents: 1})
	isNotFound(t, err)

	_, err = env.Book(ctx)
	require.NoError(t, err)

	rep, err := env.AdminSvc.Revenue(ctx, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, uint64(10700), rep.TotalCents)
	require.Len(t, rep.Months, 2)
	assert.Equal(t, "2025-01", rep.Months[0].Month)
	assert.Equal(t, 2, rep.Months[0].Payments)
	assert.Equal(t, int64(1), rep.BookingsByStatus[model.BookingPending])

	_, err = env.AdminSvc.Revenue(ctx, feb, jan)
	isValidation("from")(t, err)
}
