package client

import (
	"context"
	"time"
)

// User is the public profile returned by the server.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Session is what a successful login returns.
type Session struct {
	User             *User     `json:"user"`
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// AccessToken is a token minted by the refresh endpoint.
type AccessToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type Client interface {
	Register(ctx context.Context, username, email string, password []byte) (*User, error)
	Login(ctx context.Context, email string, password []byte) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*AccessToken, error)
	Logout(ctx context.Context, accessToken string) (int64, error)
	Me(ctx context.Context, accessToken string) (*User, error)
	Ping(ctx context.Context) error
}
