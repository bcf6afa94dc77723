package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// PostgresRepository implements the ledger over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Record(ctx context.Context, userID, secret string, kind models.TokenKind, expiresAt time.Time) (*models.Token, error) {
	query := `
		INSERT INTO tokens (user_id, secret, kind, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, blacklisted, created_at
	`
	t := &models.Token{UserID: userID, Secret: secret, Kind: kind, ExpiresAt: expiresAt}
	err := r.db.QueryRowContext(ctx, query, userID, secret, string(kind), expiresAt).
		Scan(&t.ID, &t.Blacklisted, &t.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) FindActive(ctx context.Context, secret string, kind models.TokenKind) (*models.Token, error) {
	query := `
		SELECT id, user_id, secret, kind, expires_at, blacklisted, created_at
		FROM tokens
		WHERE secret = $1 AND kind = $2 AND blacklisted = false
	`
	t := &models.Token{}
	var k string
	err := r.db.QueryRowContext(ctx, query, secret, string(kind)).
		Scan(&t.ID, &t.UserID, &t.Secret, &k, &t.ExpiresAt, &t.Blacklisted, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	t.Kind = models.TokenKind(k)
	return t, nil
}

// BlacklistAllActive is a single UPDATE so concurrent logouts never count
// the same row twice.
func (r *PostgresRepository) BlacklistAllActive(ctx context.Context, userID string, now time.Time) (int64, error) {
	query := `
		UPDATE tokens SET blacklisted = true
		WHERE user_id = $1 AND blacklisted = false AND expires_at > $2
	`
	res, err := r.db.ExecContext(ctx, query, userID, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM tokens
		WHERE expires_at <= $1
	`
	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
