package auth

import "context"

// AuthType records how an operator request was authenticated
type AuthType string

const (
	AuthTypeCookie AuthType = "cookie"
	AuthTypeBearer AuthType = "bearer"
	AuthTypeAPIKey AuthType = "api_key"
)

// AdminContext identifies the authenticated operator
type AdminContext struct {
	Subject  string
	AuthType AuthType
}

type contextKey string

const adminContextKey contextKey = "adminContext"

// WithAdminContext adds the operator identity to the context
func WithAdminContext(ctx context.Context, admin *AdminContext) context.Context {
	return context.WithValue(ctx, adminContextKey, admin)
}

// FromContext extracts the operator identity from the context
func FromContext(ctx context.Context) (*AdminContext, bool) {
	admin, ok := ctx.Value(adminContextKey).(*AdminContext)
	return admin, ok
}
