package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

// Authenticator resolves a bearer access token to a user. It only reads,
// so one instance serves all requests concurrently.
type Authenticator struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
	logger      logging.Logger
	metrics     metrics.Recorder
	now         func() time.Time
}

func NewAuthenticator(db dbx.DBTX, m repomanager.RepositoryManager, codec *auth.Codec, logger logging.Logger, rec metrics.Recorder) *Authenticator {
	return &Authenticator{
		db:          db,
		repomanager: m,
		codec:       codec,
		logger:      logger.With("module", "authenticator"),
		metrics:     rec,
		now:         time.Now,
	}
}

// Authenticate checks signature, ledger state and owner of token.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (user *models.PublicUser, err error) {
	defer func() { a.metrics.RecordAuthentication(err) }()

	if token == "" {
		return nil, common.ErrMissingToken
	}

	payload, err := a.codec.Verify(token)
	if err != nil {
		return nil, err
	}
	if payload.Kind != models.TokenKindAccess {
		return nil, common.ErrInvalidToken
	}

	rec, err := a.repomanager.Tokens(a.db).FindActive(ctx, token, models.TokenKindAccess)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrRevoked
		}
		a.logger.Error(ctx, "lookup access token failed", "error", err)
		return nil, common.ErrorInternal
	}
	if !a.now().Before(rec.ExpiresAt) {
		return nil, common.ErrTokenExpired
	}

	u, err := a.repomanager.Users(a.db).FindByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		a.logger.Error(ctx, "lookup user failed", "error", err)
		return nil, common.ErrorInternal
	}

	return u.Public(), nil
}
