package flight

import (
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ListFlights advertises the available operations, one FlightInfo per op
// with its result schema. The catalog listing carries a usable ticket and
// the generation's build info as msgpack app metadata; the parameterized
// operations advertise schema only, clients construct their tickets via
// EncodeTicket or GetFlightInfo. Criteria is ignored.
func (s *Server) ListFlights(criteria *flight.Criteria, stream flight.FlightService_ListFlightsServer) error {
	snap := s.backend.Snapshot()

	buildMeta, err := msgpack.Marshal(snap.Info())
	if err != nil {
		return status.Errorf(codes.Internal, "encode build info: %v", err)
	}

	for _, op := range []string{OpCatalog, OpSearch, OpExpand, OpGeometry} {
		schema, err := SchemaForOp(op)
		if err != nil {
			return status.Error(codes.Internal, err.Error())
		}

		info := &flight.FlightInfo{
			Schema: flight.SerializeSchema(schema, s.allocator),
			FlightDescriptor: &flight.FlightDescriptor{
				Type: flight.DescriptorPATH,
				Path: []string{op},
			},
			TotalRecords: -1,
			TotalBytes:   -1,
		}

		if op == OpCatalog {
			ticket, err := EncodeTicket(TicketData{Op: OpCatalog})
			if err != nil {
				return status.Error(codes.Internal, err.Error())
			}
			info.Endpoint = []*flight.FlightEndpoint{{
				Ticket: &flight.Ticket{Ticket: ticket},
			}}
			info.TotalRecords = int64(snap.Len())
			info.AppMetadata = buildMeta
		}

		if err := stream.Send(info); err != nil {
			return status.Errorf(codes.Internal, "send flight info: %v", err)
		}
	}
	return nil
}
