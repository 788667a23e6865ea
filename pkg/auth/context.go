package auth

import (
	"context"

	"github.com/google/uuid"
)

type adminCtxKey struct{}

// WithAdminID records the authenticated admin on ctx.
func WithAdminID(ctx context.Context, id uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, adminCtxKey{}, id)
}

// AdminIDFromContext returns the admin set by WithAdminID.
func AdminIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	id, ok := ctx.Value(adminCtxKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
