package guard

import (
	"context"

	goAuthClient "github.com/MrEthical07/goAuthClient"
)

type userContextKey struct{}

// WithUser attaches the validated user to ctx.
func WithUser(ctx context.Context, user *goAuthClient.UserProfile) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the user attached by a guarded view or handler.
func UserFromContext(ctx context.Context) (*goAuthClient.UserProfile, bool) {
	user, ok := ctx.Value(userContextKey{}).(*goAuthClient.UserProfile)
	return user, ok && user != nil
}
