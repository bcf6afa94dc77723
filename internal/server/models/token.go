package models

import "time"

type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

func (k TokenKind) Valid() bool {
	return k == TokenKindAccess || k == TokenKindRefresh
}

// Token is a ledger row: one issued token string, its kind and its
// blacklist flag. Rows are never deleted except by the expiry purge.
type Token struct {
	ID          string
	UserID      string
	Secret      string
	Kind        TokenKind
	ExpiresAt   time.Time
	Blacklisted bool
	CreatedAt   time.Time
}

// Active reports whether the token is neither revoked nor expired at now.
func (t *Token) Active(now time.Time) bool {
	return !t.Blacklisted && now.Before(t.ExpiresAt)
}
