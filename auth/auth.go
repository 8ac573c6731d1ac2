// Package auth provides bearer-token authentication for the AOI Flight
// server, applied as gRPC interceptors.
package auth

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ErrUnauthenticated is returned by Authenticator implementations for
// invalid or expired tokens.
var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticator validates bearer tokens and returns a caller identity.
// Implementations MUST be goroutine-safe; Authenticate runs on every
// request.
type Authenticator interface {
	// Authenticate validates a bearer token. The returned identity is
	// propagated via context for logging and authorization. The context
	// carries the request deadline for implementations that call out to
	// an auth backend.
	Authenticate(ctx context.Context, token string) (identity string, err error)
}

// bearerAuthenticator wraps a caller-provided validation function.
type bearerAuthenticator struct {
	validate func(token string) (string, error)
}

// BearerAuth creates an Authenticator from a token validation function.
func BearerAuth(validate func(token string) (identity string, err error)) Authenticator {
	return &bearerAuthenticator{validate: validate}
}

func (b *bearerAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	return b.validate(token)
}

// noAuthenticator allows every request. For development and tests only.
type noAuthenticator struct{}

// NoAuth returns an Authenticator that allows every request with the
// identity "anonymous".
func NoAuth() Authenticator {
	return noAuthenticator{}
}

func (noAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	return "anonymous", nil
}

// contextKey is a private type for context keys to avoid collisions.
type contextKey int

const identityKey contextKey = iota

// WithIdentity returns a context carrying the authenticated identity.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the authenticated identity, or the empty
// string for unauthenticated requests.
func IdentityFromContext(ctx context.Context) string {
	identity, ok := ctx.Value(identityKey).(string)
	if !ok {
		return ""
	}
	return identity
}

const bearerPrefix = "Bearer "

// ExtractToken pulls the bearer token out of gRPC request metadata.
// A missing header yields an empty token and no error; a malformed one
// yields an Unauthenticated status.
func ExtractToken(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", nil
	}
	headers := md.Get("authorization")
	if len(headers) == 0 {
		return "", nil
	}

	header := headers[0]
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", status.Error(codes.Unauthenticated, "authorization header must use Bearer scheme")
	}
	token := strings.TrimPrefix(header, bearerPrefix)
	if token == "" {
		return "", status.Error(codes.Unauthenticated, "bearer token is empty")
	}
	return token, nil
}

// ValidateToken authenticates a token and returns a context carrying the
// identity, or an Unauthenticated status.
func ValidateToken(ctx context.Context, token string, authenticator Authenticator) (context.Context, error) {
	if token == "" {
		return ctx, status.Error(codes.Unauthenticated, "missing bearer token")
	}
	identity, err := authenticator.Authenticate(ctx, token)
	if err != nil {
		return ctx, status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
	}
	return WithIdentity(ctx, identity), nil
}
