// Package flight exposes the AOI resolver over Arrow Flight RPC.
//
// The surface is read-only. Clients encode a request as a msgpack ticket
// (see TicketData), discover result schemas via GetFlightInfo, and stream
// result batches via DoGet. Geometries travel as WKB in a geoarrow.wkb
// extension column.
package flight

import (
	"context"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paulmach/orb"
	"google.golang.org/grpc"

	"github.com/project-zeno/aoi-go/catalog"
	"github.com/project-zeno/aoi-go/search"
)

// Backend answers the resolver operations the Flight handlers expose.
// *aoi.Resolver implements it.
type Backend interface {
	// Snapshot returns the active catalog snapshot.
	Snapshot() *catalog.Snapshot

	// Generation returns the active generation name.
	Generation() string

	// Search ranks catalog entries against a free-text query.
	Search(ctx context.Context, query string, opts search.Options) ([]search.Match, error)

	// ExpandSubregion lists entries of the target subtype contained in
	// the AOI identified by (source, sourceID).
	ExpandSubregion(ctx context.Context, source catalog.Source, sourceID string, target catalog.Subtype) ([]catalog.CatalogEntry, error)

	// GetGeometry fetches one entry's full geometry.
	GetGeometry(ctx context.Context, source catalog.Source, sourceID string) (orb.Geometry, error)
}

// Server implements the Flight service handlers over a Backend.
// Embeds BaseFlightServer so unimplemented RPCs (DoPut, DoAction and the
// write surface generally) return Unimplemented.
type Server struct {
	flight.BaseFlightServer

	backend   Backend
	allocator memory.Allocator
	logger    *slog.Logger
	address   string
}

// NewServer creates the Flight handlers. The address is the server's
// public address used in FlightEndpoint locations; empty omits locations.
func NewServer(backend Backend, allocator memory.Allocator, logger *slog.Logger, address string) *Server {
	return &Server{
		backend:   backend,
		allocator: allocator,
		logger:    logger,
		address:   address,
	}
}

// RegisterFlightServer registers the Flight service on the gRPC server.
func RegisterFlightServer(grpcServer *grpc.Server, flightServer *Server) {
	flight.RegisterFlightServiceServer(grpcServer, flightServer)
}
