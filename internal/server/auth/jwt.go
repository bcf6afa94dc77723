// Package auth contains the stateless bearer-token codec and the helpers
// that carry an authenticated identity through a request context.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the JWT payload: the registered claims plus the owner id and
// the token kind.
type Claims struct {
	jwt.RegisteredClaims
	UserID string           `json:"uid"`
	Kind   models.TokenKind `json:"typ"`
}

// Payload is what a verified token tells about itself.
type Payload struct {
	UserID    string
	Kind      models.TokenKind
	ExpiresAt time.Time
}

// Codec signs and verifies HS256 tokens with a server-held secret.
// It never consults the ledger.
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret, now: time.Now}
}

// WithClock replaces the time source, used by tests.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Sign mints a token for userID of the given kind valid for ttl. The returned
// expiry is the one embedded in the token (second precision).
func (c *Codec) Sign(userID string, kind models.TokenKind, ttl time.Duration) (string, time.Time, error) {
	if !kind.Valid() {
		return "", time.Time{}, fmt.Errorf("unknown token kind %q", kind)
	}

	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
		Kind:   kind,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, claims.ExpiresAt.Time, nil
}

// Verify checks the signature, the algorithm and the expiry of tokenString.
// It returns common.ErrTokenExpired for an expired but otherwise well-formed
// token and common.ErrInvalidToken for everything else.
func (c *Codec) Verify(tokenString string) (*Payload, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" || !claims.Kind.Valid() {
		return nil, common.ErrInvalidToken
	}

	return &Payload{
		UserID:    claims.UserID,
		Kind:      claims.Kind,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
