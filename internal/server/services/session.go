// Package services contains the server-side auth logic: the session
// lifecycle (register, login, refresh, logout) and the per-request
// authenticator.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
)

// PasswordHasher is implemented by cryptox.BcryptHasher.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Compare(ctx context.Context, hash, password string) error
	CompareDummy(ctx context.Context, password string)
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	User             *models.PublicUser
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// RefreshResult carries the access token minted by Refresh.
type RefreshResult struct {
	AccessToken string
	ExpiresAt   time.Time
}

// SessionService drives a user from anonymous to authenticated and back.
// It keeps no in-memory session state; the token ledger is authoritative.
type SessionService struct {
	store       dbx.Store
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
	hasher      PasswordHasher
	accessTTL   time.Duration
	refreshTTL  time.Duration
	logger      logging.Logger
	metrics     metrics.Recorder
	now         func() time.Time
}

func NewSessionService(store dbx.Store, m repomanager.RepositoryManager, codec *auth.Codec, hasher PasswordHasher,
	cfg *config.Config, logger logging.Logger, rec metrics.Recorder) *SessionService {
	return &SessionService{
		store:       store,
		repomanager: m,
		codec:       codec,
		hasher:      hasher,
		accessTTL:   cfg.AccessTokenValidityDuration,
		refreshTTL:  cfg.RefreshTokenValidityDuration,
		logger:      logger.With("module", "session"),
		metrics:     rec,
		now:         time.Now,
	}
}

// Register creates an account and returns its public projection.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (user *models.PublicUser, err error) {
	defer func() { s.metrics.RecordRegistration(err) }()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	users := s.repomanager.Users(s.store)

	_, err = users.FindByUsernameOrEmail(ctx, in.Username, in.Email)
	switch {
	case err == nil:
		return nil, common.ErrConflict
	case !errors.Is(err, common.ErrorNotFound):
		return nil, s.internal(ctx, "lookup user", err)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if errors.Is(err, common.ErrValidation) {
		return nil, &ValidationError{Fields: map[string]string{"password": errPasswordTooLong.Error()}}
	}
	if err != nil {
		return nil, s.internal(ctx, "hash password", err)
	}

	// the unique constraints close the gap between the lookup and the insert
	created, err := users.Create(ctx, in.Username, in.Email, hash)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.ErrConflict
		}
		return nil, s.internal(ctx, "create user", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", created.ID)
	return created.Public(), nil
}

// Login checks credentials and issues an access/refresh pair. Both tokens
// are recorded in one transaction or not at all.
func (s *SessionService) Login(ctx context.Context, in LoginInput) (res *LoginResult, err error) {
	defer func() { s.metrics.RecordLogin(err) }()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.store).FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.CompareDummy(ctx, in.Password)
			return nil, common.ErrAccountNotFound
		}
		return nil, s.internal(ctx, "lookup user", err)
	}

	if err := s.hasher.Compare(ctx, user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			s.logger.Warn(ctx, "login rejected", "user_id", user.ID)
			return nil, common.ErrInvalidCredentials
		}
		return nil, s.internal(ctx, "compare password", err)
	}

	res = &LoginResult{User: user.Public()}
	err = s.store.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		res.AccessToken, res.AccessExpiresAt, err = s.issue(ctx, tx, user.ID, models.TokenKindAccess, s.accessTTL)
		if err != nil {
			return err
		}
		res.RefreshToken, res.RefreshExpiresAt, err = s.issue(ctx, tx, user.ID, models.TokenKindRefresh, s.refreshTTL)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "token issuance failed", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrTokenIssuance, err)
	}

	s.metrics.RecordTokenIssued(string(models.TokenKindAccess))
	s.metrics.RecordTokenIssued(string(models.TokenKindRefresh))
	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return res, nil
}

// Refresh mints one new access token for the owner of refreshToken. The
// refresh token itself stays usable until it expires or the user logs out.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (res *RefreshResult, err error) {
	defer func() { s.metrics.RecordRefresh(err) }()

	if refreshToken == "" {
		return nil, common.ErrInvalidToken
	}

	payload, err := s.codec.Verify(refreshToken)
	if err != nil || payload.Kind != models.TokenKindRefresh {
		return nil, common.ErrInvalidToken
	}

	rec, err := s.repomanager.Tokens(s.store).FindActive(ctx, refreshToken, models.TokenKindRefresh)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrRevoked
		}
		return nil, s.internal(ctx, "lookup refresh token", err)
	}
	if !s.now().Before(rec.ExpiresAt) || rec.UserID != payload.UserID {
		return nil, common.ErrInvalidToken
	}

	user, err := s.repomanager.Users(s.store).FindByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, s.internal(ctx, "lookup user", err)
	}

	access, exp, err := s.issue(ctx, s.store, user.ID, models.TokenKindAccess, s.accessTTL)
	if err != nil {
		s.logger.Error(ctx, "token issuance failed", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrTokenIssuance, err)
	}

	s.metrics.RecordTokenIssued(string(models.TokenKindAccess))
	s.logger.Info(ctx, "access token refreshed", "user_id", user.ID)
	return &RefreshResult{AccessToken: access, ExpiresAt: exp}, nil
}

// Logout blacklists every live token of userID and returns how many were
// revoked. It fails with common.ErrNoActiveSession when there was nothing
// to revoke.
func (s *SessionService) Logout(ctx context.Context, userID string) (n int64, err error) {
	defer func() { s.metrics.RecordLogout(err, n) }()

	n, err = s.repomanager.Tokens(s.store).BlacklistAllActive(ctx, userID, s.now())
	if err != nil {
		return 0, s.internal(ctx, "blacklist tokens", err)
	}
	if n == 0 {
		return 0, common.ErrNoActiveSession
	}

	s.logger.Info(ctx, "user logged out", "user_id", userID, "revoked", n)
	return n, nil
}

// issue signs a token and records it through db.
func (s *SessionService) issue(ctx context.Context, db dbx.DBTX, userID string, kind models.TokenKind, ttl time.Duration) (string, time.Time, error) {
	token, exp, err := s.codec.Sign(userID, kind, ttl)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	if _, err := s.repomanager.Tokens(db).Record(ctx, userID, token, kind, exp); err != nil {
		return "", time.Time{}, fmt.Errorf("record %s token: %w", kind, err)
	}
	return token, exp, nil
}

func (s *SessionService) internal(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, op+" failed", "error", err)
	return fmt.Errorf("%w: %s: %v", common.ErrorInternal, op, err)
}
