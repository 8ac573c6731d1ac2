package aoi

import (
	"context"

	"github.com/project-zeno/aoi-go/auth"
)

// Authenticator validates bearer tokens and returns a caller identity.
// Re-exported from the auth package for convenience.
type Authenticator = auth.Authenticator

// BearerAuth creates an Authenticator from a token validation function.
//
//	a := aoi.BearerAuth(func(token string) (string, error) {
//	    user, err := validateWithBackend(token)
//	    if err != nil {
//	        return "", err
//	    }
//	    return user.ID, nil
//	})
func BearerAuth(validate func(token string) (identity string, err error)) Authenticator {
	return auth.BearerAuth(validate)
}

// NoAuth returns an Authenticator that allows every request. For
// development and tests only.
func NoAuth() Authenticator {
	return auth.NoAuth()
}

// IdentityFromContext returns the authenticated caller identity, or the
// empty string for unauthenticated requests.
func IdentityFromContext(ctx context.Context) string {
	return auth.IdentityFromContext(ctx)
}
