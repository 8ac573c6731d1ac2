package flight

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GetFlightInfo returns the result schema and a ready-to-use ticket for a
// request. The descriptor must be CMD type with the msgpack-encoded ticket
// as the command; the same bytes come back as the endpoint ticket.
func (s *Server) GetFlightInfo(ctx context.Context, desc *flight.FlightDescriptor) (*flight.FlightInfo, error) {
	if desc.GetType() != flight.DescriptorCMD {
		return nil, status.Error(codes.InvalidArgument, "descriptor must be CMD type with an encoded ticket")
	}

	td, err := DecodeTicket(desc.GetCmd())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid ticket: %v", err)
	}

	schema, err := SchemaForOp(td.Op)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	endpoint := &flight.FlightEndpoint{
		Ticket: &flight.Ticket{Ticket: desc.GetCmd()},
	}
	if s.address != "" {
		endpoint.Location = []*flight.Location{{Uri: "grpc+tcp://" + s.address}}
	}

	// Row counts are only known up front for the full catalog listing.
	totalRecords := int64(-1)
	if td.Op == OpCatalog {
		totalRecords = int64(s.backend.Snapshot().Len())
	}

	return &flight.FlightInfo{
		Schema:           flight.SerializeSchema(schema, s.allocator),
		FlightDescriptor: desc,
		Endpoint:         []*flight.FlightEndpoint{endpoint},
		TotalRecords:     totalRecords,
		TotalBytes:       -1,
	}, nil
}
