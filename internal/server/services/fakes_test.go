package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memDB is an in-memory credential store and ledger. Writes made through a
// memTx only become visible when the owning memStore commits.
type memDB struct {
	mu     sync.Mutex
	seq    int
	users  map[string]*models.User
	tokens []*models.Token

	createErr error
	recordErr func(kind models.TokenKind) error
}

func newMemDB() *memDB {
	return &memDB{users: map[string]*models.User{}}
}

func (m *memDB) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memDB) tokenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

func (m *memDB) userCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

func (m *memDB) deleteUser(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

type memTx struct {
	dbx.DBTX
	staged []*models.Token
}

type memStore struct {
	dbx.DBTX
	db *memDB
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	tx := &memTx{}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.db.mu.Lock()
	s.db.tokens = append(s.db.tokens, tx.staged...)
	s.db.mu.Unlock()
	return nil
}

type memRepoManager struct {
	db *memDB
}

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memRepoManager) Users(dbx.DBTX) users.Repository              { return &memUsers{db: m.db} }
func (m *memRepoManager) Tokens(h dbx.DBTX) tokens.Repository {
	tx, _ := h.(*memTx)
	return &memTokens{db: m.db, tx: tx}
}

type memUsers struct{ db *memDB }

func (r *memUsers) Create(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.createErr != nil {
		return nil, r.db.createErr
	}
	for _, u := range r.db.users {
		if u.Username == username || u.Email == email {
			return nil, common.ErrConflict
		}
	}
	u := &models.User{ID: r.db.nextID("user"), Username: username, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now()}
	r.db.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (r *memUsers) find(match func(u *models.User) bool) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *memUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r *memUsers) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username || u.Email == email })
}

type memTokens struct {
	db *memDB
	tx *memTx
}

func (r *memTokens) Record(ctx context.Context, userID, secret string, kind models.TokenKind, expiresAt time.Time) (*models.Token, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.recordErr != nil {
		if err := r.db.recordErr(kind); err != nil {
			return nil, err
		}
	}
	t := &models.Token{ID: r.db.nextID("tok"), UserID: userID, Secret: secret, Kind: kind, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	if r.tx != nil {
		r.tx.staged = append(r.tx.staged, t)
	} else {
		r.db.tokens = append(r.db.tokens, t)
	}
	cp := *t
	return &cp, nil
}

func (r *memTokens) FindActive(ctx context.Context, secret string, kind models.TokenKind) (*models.Token, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, t := range r.db.tokens {
		if t.Secret == secret && t.Kind == kind && !t.Blacklisted {
			cp := *t
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memTokens) BlacklistAllActive(ctx context.Context, userID string, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, t := range r.db.tokens {
		if t.UserID == userID && !t.Blacklisted && t.ExpiresAt.After(now) {
			t.Blacklisted = true
			n++
		}
	}
	return n, nil
}

func (r *memTokens) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	kept := r.db.tokens[:0]
	var n int64
	for _, t := range r.db.tokens {
		if t.ExpiresAt.After(before) {
			kept = append(kept, t)
		} else {
			n++
		}
	}
	r.db.tokens = kept
	return n, nil
}

type fixture struct {
	db      *memDB
	codec   *auth.Codec
	session *SessionService
	authn   *Authenticator
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newMemDB()
	store := &memStore{db: db}
	rm := &memRepoManager{db: db}
	codec := auth.NewCodec([]byte("test-secret"))
	hasher, err := cryptox.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	log := logging.Discard()

	return &fixture{
		db:      db,
		codec:   codec,
		session: NewSessionService(store, rm, codec, hasher, testConfig(), log, metrics.Nop{}),
		authn:   NewAuthenticator(store, rm, codec, log, metrics.Nop{}),
	}
}

const (
	alicePassword = "Secr3t!pass"
	aliceEmail    = "alice@example.com"
)

func (f *fixture) registerAlice(t *testing.T) *models.PublicUser {
	t.Helper()
	u, err := f.session.Register(context.Background(), RegisterInput{
		Username: "Alice Smith",
		Email:    aliceEmail,
		Password: alicePassword,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) loginAlice(t *testing.T) *LoginResult {
	t.Helper()
	res, err := f.session.Login(context.Background(), LoginInput{Email: aliceEmail, Password: alicePassword})
	require.NoError(t, err)
	return res
}
