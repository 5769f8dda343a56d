package auth

import (
	"context"

	"github.com/soundhive/soundhive-backend/internal/model"
)

type identityContextKey struct{}

// ContextWithIdentity attaches the resolved identity projection to the
// request context. The projection is secretless by construction, so
// nothing sensitive rides along the call chain.
func ContextWithIdentity(ctx context.Context, p model.Projection) context.Context {
	return context.WithValue(ctx, identityContextKey{}, &p)
}

// IdentityFromContext extracts the authenticated identity from the
// context, if a previous middleware attached one.
func IdentityFromContext(ctx context.Context) (model.Projection, bool) {
	if ctx == nil {
		return model.Projection{}, false
	}
	v, ok := ctx.Value(identityContextKey{}).(*model.Projection)
	if !ok || v == nil {
		return model.Projection{}, false
	}
	return *v, true
}
