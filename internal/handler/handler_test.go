package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/config"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/handler"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/realtime"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/repository"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/router"
	st "github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/service/servicetest"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/utils"
)

const jwtSecret = "handler-test-secret"

// accounts is an in-memory Accounts keyed by email.
type accounts struct {
	mu    sync.Mutex
	next  uint64
	users map[string]model.User
}

func newAccounts() *accounts { return &accounts{next: 1000, users: map[string]model.User{}} }

func (a *accounts) Create(_ context.Context, email, password, name, role string, cost int) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.users[email]; ok {
		return 0, repository.ErrEmailExists
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	a.next++
	a.users[email] = model.User{ID: a.next, Email: email, PasswordHash: hash, DisplayName: name, Role: role, IsActive: true}
	return a.next, nil
}

func (a *accounts) GetByEmail(_ context.Context, email string) (model.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[email]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (a *accounts) GetByID(_ context.Context, id uint64) (model.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, u := range a.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

type refreshRow struct {
	userID  uint64
	revoked bool
}

// tokens is an in-memory RefreshTokens.
type tokens struct {
	mu   sync.Mutex
	rows map[string]*refreshRow
}

func (t *tokens) StoreRefresh(_ context.Context, uid uint64, hash string, _ time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[hash] = &refreshRow{userID: uid}
	return nil
}

func (t *tokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rows[hash]
	if !ok || r.revoked {
		return 0, repository.ErrNotFound
	}
	return r.userID, nil
}

func (t *tokens) Rotate(_ context.Context, uid uint64, oldHash, newHash string, _ time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rows[oldHash]
	if !ok || r.revoked {
		return repository.ErrNotFound
	}
	r.revoked = true
	t.rows[newHash] = &refreshRow{userID: uid}
	return nil
}

func (t *tokens) RevokeByHash(_ context.Context, hash string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if r, ok := t.rows[hash]; ok {
		r.revoked = true
	}
	return nil
}

func (t *tokens) RevokeAllForUser(_ context.Context, uid uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range t.rows {
		if r.userID == uid {
			r.revoked = true
		}
	}
	return nil
}

type server struct {
	e   *echo.Echo
	env *st.Env
	acc *accounts
	tok *tokens
}

func newServer(t *testing.T) *server {
	t.Helper()
	env := st.New()
	acc := newAccounts()
	tok := &tokens{rows: map[string]*refreshRow{}}
	cfg := config.Config{JWTSecret: jwtSecret, AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4}

	e := echo.New()
	router.Register(e, router.Deps{
		JWTSecret:   jwtSecret,
		Auth:        handler.NewAuthHandler(cfg, acc, tok),
		Bookings:    handler.NewBookingHandler(env.BookingSvc, env.ReviewSvc, nil),
		Restaurants: handler.NewRestaurantHandler(env.RestaurantSvc, env.MenuSvc, env.ReviewSvc, nil),
		Account:     handler.NewAccountHandler(env.FavoriteSvc, env.NotificationSvc),
		Admin:       handler.NewAdminHandler(env.AdminSvc, env.ReviewSvc, nil),
		WS:          handler.NewWSHandler(realtime.NewHub(4), nil),
	})
	return &server{e: e, env: env, acc: acc, tok: tok}
}

func bearer(t *testing.T, a model.Actor) string {
	t.Helper()
	at, err := utils.NewAccessToken(jwtSecret, a.UserID, a.Role, "tester", 15)
	require.NoError(t, err)
	return at.Token
}

func (s *server) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func newBooking(t *testing.T, s *server) map[string]any {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/v1/bookings", bearer(t, st.Client), echo.Map{
		"restaurant_id": st.RestaurantID, "date": "2025-03-01", "time": "20:00", "guest_count": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	s := newServer(t)
	client, owner := bearer(t, st.Client), bearer(t, st.Owner)

	b := newBooking(t, s)
	id := b["id"].(string)
	assert.Equal(t, "pending", b["status"])

	rec := s.do(t, http.MethodGet, "/v1/bookings/"+id+"/review-eligibility", client, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"allowed": false, "reason": "not_completed"}, decode(t, rec))

	rec = s.do(t, http.MethodPatch, "/v1/owner/bookings/"+id+"/status", owner, echo.Map{"status": "confirmed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "confirmed", decode(t, rec)["status"])

	rec = s.do(t, http.MethodPost, "/v1/owner/checkin", owner, echo.Map{"qr_token": b["qr_token"]})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode(t, rec)["has_arrived"])

	rec = s.do(t, http.MethodPatch, "/v1/owner/bookings/"+id+"/status", owner, echo.Map{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["can_review"])

	rec = s.do(t, http.MethodPost, "/v1/bookings/"+id+"/review", client, echo.Map{"rating": 5, "comment": "Safe and delicious"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/v1/bookings/"+id+"/review", client, echo.Map{"rating": 4})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "already_reviewed", decode(t, rec)["code"])

	rec = s.do(t, http.MethodGet, "/v1/restaurants/100/reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode(t, rec)["summary"].(map[string]any)
	assert.Equal(t, float64(1), summary["count"])
	assert.Equal(t, float64(5), summary["average"])
}

func TestErrorMapping(t *testing.T) {
	s := newServer(t)
	client, owner, other := bearer(t, st.Client), bearer(t, st.Owner), bearer(t, st.OtherOwner)
	b := newBooking(t, s)
	id, qr := b["id"].(string), b["qr_token"].(string)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		code   string
	}{
		{"bad guest count", http.MethodPost, "/v1/bookings", client,
			echo.Map{"restaurant_id": st.RestaurantID, "date": "2025-03-01", "time": "20:00", "guest_count": 0},
			http.StatusBadRequest, "validation"},
		{"unknown restaurant", http.MethodPost, "/v1/bookings", client,
			echo.Map{"restaurant_id": 9999, "date": "2025-03-01", "time": "20:00", "guest_count": 2},
			http.StatusNotFound, "not_found"},
		{"unknown booking", http.MethodGet, "/v1/bookings/nope", client, nil, http.StatusNotFound, "not_found"},
		{"foreign owner", http.MethodPatch, "/v1/owner/bookings/" + id + "/status", other,
			echo.Map{"status": "confirmed"}, http.StatusForbidden, "not_owner"},
		{"pending to completed", http.MethodPatch, "/v1/owner/bookings/" + id + "/status", owner,
			echo.Map{"status": "completed"}, http.StatusConflict, "illegal_transition"},
		{"scan while pending", http.MethodPost, "/v1/owner/checkin", owner,
			echo.Map{"qr_token": qr}, http.StatusConflict, "invalid_state"},
		{"empty scan", http.MethodPost, "/v1/owner/checkin", owner, echo.Map{}, http.StatusBadRequest, "validation"},
		{"review before completion", http.MethodPost, "/v1/bookings/" + id + "/review", client,
			echo.Map{"rating": 5}, http.StatusForbidden, "not_completed"},
		{"client on owner route", http.MethodGet, "/v1/owner/bookings", client, nil, http.StatusForbidden, "role_not_allowed"},
		{"anonymous", http.MethodGet, "/v1/bookings", "", nil, http.StatusUnauthorized, ""},
		{"bad revenue range", http.MethodGet, "/v1/admin/revenue?from=yesterday", bearer(t, st.Admin), nil,
			http.StatusBadRequest, "validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, decode(t, rec)["code"])
			}
		})
	}
}

func TestClientCancelAndQRCode(t *testing.T) {
	s := newServer(t)
	client := bearer(t, st.Client)
	id := newBooking(t, s)["id"].(string)

	rec := s.do(t, http.MethodGet, "/v1/bookings/"+id+"/qr.png", client, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = s.do(t, http.MethodGet, "/v1/bookings/"+id+"/qr.png", bearer(t, st.OtherClient), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/bookings/"+id+"/cancel", client, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", decode(t, rec)["status"])

	rec = s.do(t, http.MethodGet, "/v1/owner/bookings?status=cancelled", bearer(t, st.Owner), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"], 1)
}

func TestAuthFlow(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/v1/auth/register", "", echo.Map{
		"email": "Luca@Example.com", "password": "celiac-safe", "display_name": "Luca", "role": "restaurant",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decode(t, rec)
	assert.Equal(t, "luca@example.com", reg["user"].(map[string]any)["email"])
	assert.Equal(t, "RESTAURANT", reg["user"].(map[string]any)["role"])

	rec = s.do(t, http.MethodPost, "/v1/auth/register", "", echo.Map{
		"email": "luca@example.com", "password": "celiac-safe", "display_name": "Luca",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/auth/register", "", echo.Map{
		"email": "admin2@example.com", "password": "celiac-safe", "display_name": "X", "role": "ADMIN",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "luca@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "luca@example.com", "password": "celiac-safe"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode(t, rec)
	access := login["access"].(map[string]any)["token"].(string)
	refresh := login["refresh"].(map[string]any)["token"].(string)

	rec = s.do(t, http.MethodGet, "/v1/me", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Luca", decode(t, rec)["display_name"])

	rec = s.do(t, http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := decode(t, rec)["refresh"].(map[string]any)["token"].(string)
	assert.NotEqual(t, refresh, rotated)

	rec = s.do(t, http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "a rotated refresh token is single use")

	rec = s.do(t, http.MethodPost, "/v1/auth/refresh-access", "", echo.Map{"refresh_token": rotated})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/auth/logout", access, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodPost, "/v1/auth/refresh-access", "", echo.Map{"refresh_token": rotated})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOwnerMenuAndPublicListing(t *testing.T) {
	s := newServer(t)
	owner := bearer(t, st.Owner)

	rec := s.do(t, http.MethodPost, "/v1/owner/menu", owner, echo.Map{"name": "Lasagne", "price_cents": 1400})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	itemID := decode(t, rec)["id"].(float64)

	rec = s.do(t, http.MethodGet, "/v1/restaurants/100/menu", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"], 1)

	rec = s.do(t, http.MethodDelete, "/v1/owner/menu/"+strconv.FormatUint(uint64(itemID), 10), owner, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/restaurants?city=Milano", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode(t, rec)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Pizzeria Libera", items[0].(map[string]any)["name"])

	rec = s.do(t, http.MethodGet, "/v1/restaurants?certified=maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFavoritesAndNotifications(t *testing.T) {
	s := newServer(t)
	client := bearer(t, st.Client)

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodPost, "/v1/favorites/100", client, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
	rec := s.do(t, http.MethodGet, "/v1/favorites", client, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"], 1)

	rec = s.do(t, http.MethodPost, "/v1/favorites/4242", client, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/notifications/read-all", client, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["updated"])
}
