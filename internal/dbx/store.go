package dbx

import (
	"context"
	"database/sql"
)

// Store is a DBTX that can also run a function inside a transaction.
// Services depend on Store rather than *sql.DB so that tests can swap in
// fakes without a database.
type Store interface {
	DBTX
	InTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// SQLStore adapts *sql.DB to Store.
type SQLStore struct {
	*sql.DB
	opts *sql.TxOptions
}

// NewStore wraps db. opts are passed to every transaction and may be nil.
func NewStore(db *sql.DB, opts *sql.TxOptions) *SQLStore {
	return &SQLStore{DB: db, opts: opts}
}

// InTx runs fn inside a transaction, see WithTx.
func (s *SQLStore) InTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	return WithTx(ctx, s.DB, s.opts, fn)
}
