// Package services contains application services for the authkeeper client.
// AuthService keeps the current session in memory and hides token refresh
// from the CLI.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
)

var ErrNotLoggedIn = errors.New("not logged in")

// AuthService defines the session operations the CLI needs.
//
// Me retries once after refreshing the access token when the server answers
// 401. Logout forgets the local session even when the server call fails.
type AuthService interface {
	Register(ctx context.Context, username, email string, password []byte) (*client.User, error)
	Login(ctx context.Context, email string, password []byte) (*client.User, error)
	Refresh(ctx context.Context) (time.Time, error)
	Logout(ctx context.Context) (int64, error)
	Me(ctx context.Context) (*client.User, error)
	Ping(ctx context.Context) error
	CurrentUser() *client.User
}

type authService struct {
	client client.Client

	mu           sync.Mutex
	user         *client.User
	accessToken  string
	refreshToken string
}

func NewAuthService(c client.Client) AuthService {
	return &authService{client: c}
}

func (a *authService) Register(ctx context.Context, username, email string, password []byte) (*client.User, error) {
	return a.client.Register(ctx, username, email, password)
}

func (a *authService) Login(ctx context.Context, email string, password []byte) (*client.User, error) {
	s, err := a.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.user = s.User
	a.accessToken = s.AccessToken
	a.refreshToken = s.RefreshToken
	return s.User, nil
}

func (a *authService) Refresh(ctx context.Context) (time.Time, error) {
	a.mu.Lock()
	refreshToken := a.refreshToken
	a.mu.Unlock()

	if refreshToken == "" {
		return time.Time{}, ErrNotLoggedIn
	}

	t, err := a.client.Refresh(ctx, refreshToken)
	if err != nil {
		return time.Time{}, err
	}

	a.mu.Lock()
	a.accessToken = t.AccessToken
	a.mu.Unlock()
	return t.ExpiresAt, nil
}

func (a *authService) Logout(ctx context.Context) (int64, error) {
	a.mu.Lock()
	accessToken := a.accessToken
	a.user = nil
	a.accessToken = ""
	a.refreshToken = ""
	a.mu.Unlock()

	if accessToken == "" {
		return 0, ErrNotLoggedIn
	}
	return a.client.Logout(ctx, accessToken)
}

func (a *authService) Me(ctx context.Context) (*client.User, error) {
	a.mu.Lock()
	accessToken := a.accessToken
	a.mu.Unlock()

	if accessToken == "" {
		return nil, ErrNotLoggedIn
	}

	u, err := a.client.Me(ctx, accessToken)
	if !errors.Is(err, client.ErrUnauthorized) {
		return u, err
	}

	if _, rerr := a.Refresh(ctx); rerr != nil {
		return nil, err
	}

	a.mu.Lock()
	accessToken = a.accessToken
	a.mu.Unlock()
	return a.client.Me(ctx, accessToken)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) CurrentUser() *client.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user
}
