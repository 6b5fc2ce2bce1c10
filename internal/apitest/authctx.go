package apitest

import (
	"context"

	"github.com/and161185/nullscape-admin/internal/model"
)

type ctxKey string

const userKey ctxKey = "ns.user"

// withUser stores the authenticated user in context.
func withUser(ctx context.Context, u model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// userFromCtx fetches the authenticated user from context.
func userFromCtx(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(userKey).(model.User)
	return u, ok
}
