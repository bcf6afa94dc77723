// Package httpapi is the JSON-over-HTTP transport for the session service.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

const maxBodyBytes = 1 << 20

type SessionService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.PublicUser, error)
	Login(ctx context.Context, in services.LoginInput) (*services.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.RefreshResult, error)
	Logout(ctx context.Context, userID string) (int64, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.PublicUser, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type AuthHandler struct {
	sessions SessionService
	db       Pinger
}

func NewAuthHandler(sessions SessionService, db Pinger) *AuthHandler {
	return &AuthHandler{sessions: sessions, db: db}
}

type LoginResponse struct {
	User             *models.PublicUser `json:"user"`
	AccessToken      string             `json:"access_token"`
	RefreshToken     string             `json:"refresh_token"`
	AccessExpiresAt  time.Time          `json:"access_expires_at"`
	RefreshExpiresAt time.Time          `json:"refresh_expires_at"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type LogoutResponse struct {
	Revoked int64 `json:"revoked"`
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", common.ErrValidation)
	}
	return nil
}

// Register handles POST /register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.sessions.Register(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, Envelope{Message: "user registered", Data: user})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.sessions.Login(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	setRequestUser(r.Context(), res.User.ID)
	writeJSON(w, http.StatusOK, Envelope{Message: "login successful", Data: LoginResponse{
		User:             res.User,
		AccessToken:      res.AccessToken,
		RefreshToken:     res.RefreshToken,
		AccessExpiresAt:  res.AccessExpiresAt,
		RefreshExpiresAt: res.RefreshExpiresAt,
	}})
}

// Refresh handles POST /refresh-token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var in RefreshRequest
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	if in.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, Envelope{
			Message: "validation failed",
			Errors:  map[string]string{"refresh_token": "cannot be blank"},
		})
		return
	}

	res, err := h.sessions.Refresh(r.Context(), in.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Envelope{Message: "token refreshed", Data: RefreshResponse{
		AccessToken: res.AccessToken,
		ExpiresAt:   res.ExpiresAt,
	}})
}

// Logout handles POST /logout. Requires the bearer middleware.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrMissingToken)
		return
	}

	n, err := h.sessions.Logout(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Envelope{Message: "logged out", Data: LogoutResponse{Revoked: n}})
}

// Me handles GET /me. Requires the bearer middleware.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrMissingToken)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Message: "ok", Data: user})
}

// Health handles GET /healthz.
func (h *AuthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, Envelope{Message: "database unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, Envelope{Message: "ok"})
}
