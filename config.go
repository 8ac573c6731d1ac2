package aoi

import (
	"errors"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/project-zeno/aoi-go/auth"
	"github.com/project-zeno/aoi-go/store"
)

// Config configures a Resolver.
type Config struct {
	// Dir is the store directory holding the CURRENT pointer and
	// generation files produced by the ingestion pipeline.
	// REQUIRED: MUST NOT be empty.
	Dir string

	// Logger for internal logging.
	// OPTIONAL: Uses slog.Default() if nil.
	Logger *slog.Logger
}

// ServerConfig configures the Flight serving surface.
type ServerConfig struct {
	// Resolver answers catalog, search, expansion, and geometry requests.
	// REQUIRED: MUST NOT be nil.
	Resolver *Resolver

	// Auth provides authentication logic.
	// OPTIONAL: If nil, no authentication (all requests allowed).
	Auth auth.Authenticator

	// Allocator for Arrow memory management.
	// OPTIONAL: Uses memory.DefaultAllocator if nil.
	Allocator memory.Allocator

	// Logger for internal logging.
	// OPTIONAL: Uses slog.Default() if nil.
	Logger *slog.Logger

	// MaxMessageSize sets maximum gRPC message size in bytes.
	// OPTIONAL: If 0, uses gRPC default (4MB). Geometry streams can
	// exceed the default; 16MB is a reasonable setting.
	MaxMessageSize int

	// Address is the server's public address (e.g., "localhost:50051")
	// used in FlightEndpoint locations.
	// OPTIONAL: If empty, endpoints carry no location URI.
	Address string
}

// Standard errors returned by the aoi package.
var (
	// ErrInvalidArgument indicates a malformed request: empty query,
	// out-of-range threshold, or an unknown subtype.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound indicates the requested catalog entry or geometry
	// does not exist in the active generation.
	ErrNotFound = store.ErrNotFound

	// ErrStoreUnavailable indicates no committed generation exists or
	// the store directory cannot be opened.
	ErrStoreUnavailable = store.ErrUnavailable

	// ErrInvalidConfig indicates Config or ServerConfig validation failed.
	ErrInvalidConfig = errors.New("invalid config")
)
