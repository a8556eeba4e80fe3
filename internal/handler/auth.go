package handler

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/config"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/repository"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/utils"
)

// Accounts is the user storage used by AuthHandler.
type Accounts interface {
	Create(ctx context.Context, email, password, displayName, role string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// RefreshTokens persists hashed refresh tokens.
type RefreshTokens interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	Rotate(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  Accounts
	Tokens RefreshTokens
}

func NewAuthHandler(cfg config.Config, u Accounts, t RefreshTokens) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"` // CLIENT | RESTAURANT
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID          uint64 `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func authCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// Register creates a CLIENT or RESTAURANT account and returns a token pair.
// ADMIN accounts are seeded directly in the database.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "validation", "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return errJSON(c, http.StatusBadRequest, "validation", "email: invalid address")
	}
	if err := utils.CheckPassword(req.Password); err != nil {
		return errJSON(c, http.StatusBadRequest, "validation", "password: "+err.Error())
	}
	if req.DisplayName == "" || utf8.RuneCountInString(req.DisplayName) > 100 {
		return errJSON(c, http.StatusBadRequest, "validation", "display_name: required, at most 100 characters")
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	switch role {
	case "":
		role = model.RoleClient
	case model.RoleClient, model.RoleRestaurant:
	default:
		return errJSON(c, http.StatusBadRequest, "validation", "role: must be CLIENT or RESTAURANT")
	}

	ctx, cancel := authCtx(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, req.DisplayName, role, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return errJSON(c, http.StatusConflict, "conflict", "email already exists")
		}
		logrus.WithError(err).Error("register: create user")
		return errJSON(c, http.StatusInternalServerError, "internal", "create user failed")
	}
	u := model.User{ID: uid, Email: req.Email, DisplayName: req.DisplayName, Role: role}
	return h.issue(ctx, c, http.StatusCreated, u, "")
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "validation", "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return errJSON(c, http.StatusBadRequest, "validation", "email/password required")
	}

	ctx, cancel := authCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errJSON(c, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		}
		logrus.WithError(err).Error("login: load user")
		return errJSON(c, http.StatusInternalServerError, "internal", "query failed")
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return errJSON(c, http.StatusUnauthorized, "unauthorized", "invalid credentials")
	}
	return h.issue(ctx, c, http.StatusOK, u, "")
}

// Refresh validates a refresh token, revokes it and issues a new pair.  A
// token presented twice loses the race inside Rotate and gets 401.
func (h *AuthHandler) Refresh(c echo.Context) error {
	hash, ok := h.bindRefresh(c)
	if !ok {
		return nil
	}
	ctx, cancel := authCtx(c)
	defer cancel()

	u, ok := h.refreshOwner(ctx, c, hash)
	if !ok {
		return nil
	}
	return h.issue(ctx, c, http.StatusOK, u, hash)
}

// RefreshAccess returns a new access token without rotating the refresh
// token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	hash, ok := h.bindRefresh(c)
	if !ok {
		return nil
	}
	ctx, cancel := authCtx(c)
	defer cancel()

	u, ok := h.refreshOwner(ctx, c, hash)
	if !ok {
		return nil
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, u.DisplayName, h.Cfg.AccessTTLMin)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, "internal", "issue access failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes the refresh token in the body, or every refresh token of
// the bearer when the body is empty.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := authCtx(c)
	defer cancel()

	if raw != "" {
		hash := utils.HashRefreshRaw(raw)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return errJSON(c, http.StatusUnauthorized, "unauthorized", "invalid refresh token")
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return errJSON(c, http.StatusInternalServerError, "internal", "logout failed")
		}
		return c.NoContent(http.StatusNoContent)
	}

	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return errJSON(c, http.StatusBadRequest, "validation", "provide Authorization header or refresh_token")
	}
	claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
	if err != nil {
		return errJSON(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
	}
	uid, _ := claims.UserID()
	if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return errJSON(c, http.StatusInternalServerError, "internal", "logout failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the profile of the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	a, ok := actor(c)
	if !ok {
		return nil
	}
	u, err := h.Users.GetByID(c.Request().Context(), a.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errJSON(c, http.StatusUnauthorized, "unauthorized", "unknown user")
		}
		return errJSON(c, http.StatusInternalServerError, "internal", "load user failed")
	}
	return c.JSON(http.StatusOK, userPart{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, Role: u.Role})
}

func (h *AuthHandler) bindRefresh(c echo.Context) (string, bool) {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		_ = errJSON(c, http.StatusBadRequest, "validation", "refresh_token required")
		return "", false
	}
	return utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken)), true
}

func (h *AuthHandler) refreshOwner(ctx context.Context, c echo.Context, hash string) (model.User, bool) {
	uid, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		_ = errJSON(c, http.StatusUnauthorized, "unauthorized", "invalid refresh")
		return model.User{}, false
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil || !u.IsActive {
		_ = errJSON(c, http.StatusUnauthorized, "unauthorized", "invalid refresh")
		return model.User{}, false
	}
	return u, true
}

// issue signs an access token and a refresh token for u.  When oldHash is
// set the refresh token replaces it atomically.
func (h *AuthHandler) issue(ctx context.Context, c echo.Context, status int, u model.User, oldHash string) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, u.DisplayName, h.Cfg.AccessTTLMin)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, "internal", "issue access failed")
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, "internal", "issue refresh failed")
	}
	newHash := utils.HashRefreshRaw(refresh.Raw)
	if oldHash == "" {
		err = h.Tokens.StoreRefresh(ctx, u.ID, newHash, refresh.Exp)
	} else {
		err = h.Tokens.Rotate(ctx, u.ID, oldHash, newHash, refresh.Exp)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return errJSON(c, http.StatusUnauthorized, "unauthorized", "invalid refresh")
	}
	if err != nil {
		logrus.WithError(err).WithField("user_id", u.ID).Error("auth: save refresh token")
		return errJSON(c, http.StatusInternalServerError, "internal", "save refresh failed")
	}
	return c.JSON(status, authResp{
		User:    userPart{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, Role: u.Role},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}

