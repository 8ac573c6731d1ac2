package auth

import (
	"context"

	"google.golang.org/grpc"
)

// UnaryServerInterceptor authenticates unary RPCs and propagates the
// caller identity via context. A nil authenticator passes everything
// through.
func UnaryServerInterceptor(authenticator Authenticator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if authenticator == nil {
			return handler(ctx, req)
		}
		token, err := ExtractToken(ctx)
		if err != nil {
			return nil, err
		}
		ctx, err = ValidateToken(ctx, token, authenticator)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor authenticates streaming RPCs and propagates the
// caller identity via a wrapped stream context. A nil authenticator passes
// everything through.
func StreamServerInterceptor(authenticator Authenticator) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if authenticator == nil {
			return handler(srv, ss)
		}
		ctx := ss.Context()
		token, err := ExtractToken(ctx)
		if err != nil {
			return err
		}
		ctx, err = ValidateToken(ctx, token, authenticator)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: ctx})
	}
}

// wrappedServerStream overrides Context on a grpc.ServerStream.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
