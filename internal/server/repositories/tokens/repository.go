// Package tokens declares the token ledger: the persisted record of every
// issued access and refresh token.
package tokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository defines ledger operations. Rows are append-only apart from
// the blacklist flag and the expiry purge.
type Repository interface {
	// Record stores a freshly signed token.
	Record(ctx context.Context, userID, secret string, kind models.TokenKind, expiresAt time.Time) (*models.Token, error)

	// FindActive returns the non-blacklisted row for secret of the given kind,
	// or common.ErrorNotFound. Expiry is left to the caller.
	FindActive(ctx context.Context, secret string, kind models.TokenKind) (*models.Token, error)

	// BlacklistAllActive flips every live token of userID and returns how many
	// rows changed.
	BlacklistAllActive(ctx context.Context, userID string, now time.Time) (int64, error)

	// PurgeExpired deletes rows that expired before the given instant.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
