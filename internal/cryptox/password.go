// Package cryptox holds the password hashing used by the credential flow.
package cryptox

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// dummyPassword is hashed once per hasher so that logins for unknown
// accounts spend the same bcrypt time as real ones.
const dummyPassword = "authkeeper-timing-equaliser"

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// BcryptHasher hashes and compares passwords with bcrypt. Both operations
// run on a separate goroutine and give up when ctx is cancelled.
type BcryptHasher struct {
	cost  int
	dummy []byte
}

// NewBcryptHasher validates cost and prepares the dummy hash.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), cost)
	if err != nil {
		return nil, err
	}
	return &BcryptHasher{cost: cost, dummy: dummy}, nil
}

// Hash returns the salted bcrypt hash of password. Passwords longer than
// MaxPasswordBytes fail with common.ErrValidation.
func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	b, err := run(ctx, func() ([]byte, error) {
		return bcrypt.GenerateFromPassword([]byte(password), h.cost)
	})
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password must be at most %d bytes", common.ErrValidation, MaxPasswordBytes)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare returns nil when password matches hash and
// common.ErrInvalidCredentials when it does not.
func (h *BcryptHasher) Compare(ctx context.Context, hash, password string) error {
	_, err := run(ctx, func() ([]byte, error) {
		return nil, bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	})
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return common.ErrInvalidCredentials
	}
	return err
}

// CompareDummy burns one comparison against a throwaway hash.
func (h *BcryptHasher) CompareDummy(ctx context.Context, password string) {
	_, _ = run(ctx, func() ([]byte, error) {
		return nil, bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
	})
}

type result struct {
	b   []byte
	err error
}

func run(ctx context.Context, fn func() ([]byte, error)) ([]byte, error) {
	ch := make(chan result, 1)
	go func() {
		b, err := fn()
		ch <- result{b: b, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.b, r.err
	}
}
