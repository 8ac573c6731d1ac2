package aoi

import (
	"fmt"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"

	"github.com/project-zeno/aoi-go/auth"
	"github.com/project-zeno/aoi-go/flight"
)

// NewServer registers the AOI Flight service handlers on the provided gRPC
// server. It validates the configuration and wires the resolver into the
// Flight handlers; it does NOT start the server, the caller controls the
// lifecycle via grpcServer.Serve().
//
// For authentication, create the gRPC server with ServerOptions:
//
//	config := aoi.ServerConfig{
//	    Resolver: resolver,
//	    Auth:     aoi.BearerAuth(validateToken),
//	}
//	grpcServer := grpc.NewServer(aoi.ServerOptions(config)...)
//	err := aoi.NewServer(grpcServer, config)
func NewServer(grpcServer *grpc.Server, config ServerConfig) error {
	if config.Resolver == nil {
		return fmt.Errorf("%w: resolver is required", ErrInvalidConfig)
	}

	allocator := config.Allocator
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	flightServer := flight.NewServer(config.Resolver, allocator, logger, config.Address)
	flight.RegisterFlightServer(grpcServer, flightServer)

	logger.Info("aoi flight server registered",
		"generation", config.Resolver.Generation(),
		"has_auth", config.Auth != nil,
	)
	return nil
}

// ServerOptions returns gRPC server options derived from the config:
// authentication interceptors when Auth is set, and message size limits
// when MaxMessageSize is set.
func ServerOptions(config ServerConfig) []grpc.ServerOption {
	var opts []grpc.ServerOption
	if config.Auth != nil {
		opts = append(opts,
			grpc.UnaryInterceptor(auth.UnaryServerInterceptor(config.Auth)),
			grpc.StreamInterceptor(auth.StreamServerInterceptor(config.Auth)),
		)
	}
	if config.MaxMessageSize > 0 {
		opts = append(opts,
			grpc.MaxRecvMsgSize(config.MaxMessageSize),
			grpc.MaxSendMsgSize(config.MaxMessageSize),
		)
	}
	return opts
}
