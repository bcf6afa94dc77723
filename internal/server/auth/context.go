package auth

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

type userCtxKey struct{}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, u *models.PublicUser) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext returns the user stored by WithUser, if any.
func UserFromContext(ctx context.Context) (*models.PublicUser, bool) {
	u, ok := ctx.Value(userCtxKey{}).(*models.PublicUser)
	return u, ok && u != nil
}
