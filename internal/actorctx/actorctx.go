package actorctx

import (
	"context"

	"github.com/geocoder89/bloodhub/internal/domain/user"
)

// Identity is the caller decoded from a valid token.
type Identity struct {
	ID    int64
	Email string
	Role  user.Role
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(ctxKey{}).(Identity)

	return v, ok && v.ID != 0
}
