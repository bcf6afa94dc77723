package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

var alice = &models.PublicUser{ID: "u-1", Username: "Alice", Email: "alice@example.com"}

type fakeSessions struct {
	registerErr error
	loginErr    error
	refreshErr  error
	logoutErr   error

	lastRegister services.RegisterInput
	lastLogout   string
}

func (f *fakeSessions) Register(ctx context.Context, in services.RegisterInput) (*models.PublicUser, error) {
	f.lastRegister = in
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.PublicUser{ID: "u-2", Username: in.Username, Email: in.Email}, nil
}

func (f *fakeSessions) Login(ctx context.Context, in services.LoginInput) (*services.LoginResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &services.LoginResult{
		User:             alice,
		AccessToken:      "good",
		RefreshToken:     "refresh-1",
		AccessExpiresAt:  now.Add(time.Hour),
		RefreshExpiresAt: now.Add(24 * time.Hour),
	}, nil
}

func (f *fakeSessions) Refresh(ctx context.Context, refreshToken string) (*services.RefreshResult, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &services.RefreshResult{AccessToken: "good-2", ExpiresAt: time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)}, nil
}

func (f *fakeSessions) Logout(ctx context.Context, userID string) (int64, error) {
	f.lastLogout = userID
	if f.logoutErr != nil {
		return 0, f.logoutErr
	}
	return 2, nil
}

type fakeAuthn struct{}

func (fakeAuthn) Authenticate(ctx context.Context, token string) (*models.PublicUser, error) {
	switch token {
	case "":
		return nil, common.ErrMissingToken
	case "good", "good-2":
		return alice, nil
	case "revoked":
		return nil, common.ErrRevoked
	default:
		return nil, common.ErrInvalidToken
	}
}
