package middleware

import "context"

type contextKey string

const (
	ctxVisitor  contextKey = "visitor"
	ctxAdminID  contextKey = "admin_id"
	ctxAccessID contextKey = "access_id"
)

// VisitorFromContext returns the storefront visitor token, if any.
func VisitorFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxVisitor)
}

func AdminIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxAdminID)
}

// AccessIDFromContext returns the session id of the verified admin token.
func AccessIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxAccessID)
}

// WithVisitor injects the visitor token for downstream handlers.
func WithVisitor(ctx context.Context, visitor string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxVisitor, visitor)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
