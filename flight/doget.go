package flight

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/paulmach/orb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/project-zeno/aoi-go/catalog"
	"github.com/project-zeno/aoi-go/internal/recovery"
	"github.com/project-zeno/aoi-go/search"
)

// DoGet streams the result of one ticket operation as Arrow record
// batches. The ticket must be encoded with EncodeTicket.
func (s *Server) DoGet(ticket *flight.Ticket, stream flight.FlightService_DoGetServer) error {
	ctx := stream.Context()

	td, err := DecodeTicket(ticket.GetTicket())
	if err != nil {
		s.logger.Debug("rejected ticket", "error", err)
		return status.Errorf(codes.InvalidArgument, "invalid ticket: %v", err)
	}

	s.logger.Debug("DoGet",
		"op", td.Op,
		"source", td.Source,
		"source_id", td.SourceID,
	)

	switch td.Op {
	case OpCatalog:
		return s.getCatalog(ctx, stream)
	case OpSearch:
		return s.getSearch(ctx, td, stream)
	case OpExpand:
		return s.getExpand(ctx, td, stream)
	case OpGeometry:
		return s.getGeometry(ctx, td, stream)
	default:
		return status.Errorf(codes.InvalidArgument, "unknown op %q", td.Op)
	}
}

// getCatalog streams every entry of the active generation in fixed-size
// batches.
func (s *Server) getCatalog(ctx context.Context, stream flight.FlightService_DoGetServer) error {
	snap := s.backend.Snapshot()

	writer := flight.NewRecordWriter(stream, ipc.WithSchema(EntrySchema()))
	defer writer.Close()

	n := snap.Len()
	for off := 0; off < n; off += catalogBatchRows {
		if err := ctx.Err(); err != nil {
			return statusFromError(err)
		}
		end := off + catalogBatchRows
		if end > n {
			end = n
		}

		b := array.NewRecordBuilder(s.allocator, EntrySchema())
		for i := off; i < end; i++ {
			appendEntry(b, snap.Entry(int32(i)))
		}
		record := b.NewRecordBatch()
		b.Release()

		err := writer.Write(record)
		record.Release()
		if err != nil {
			return status.Errorf(codes.Internal, "write batch at %d: %v", off, err)
		}
	}

	s.logger.Debug("catalog streamed", "entries", n)
	return nil
}

func (s *Server) getSearch(ctx context.Context, td *TicketData, stream flight.FlightService_DoGetServer) error {
	matches, err := recovery.RecoverToValue(s.logger, "Search", func() ([]search.Match, error) {
		return s.backend.Search(ctx, td.Query, td.searchOptions())
	})
	if err != nil {
		return statusFromError(err)
	}

	record := s.matchRecord(matches)
	defer record.Release()
	return s.writeSingle(stream, MatchSchema(), record)
}

func (s *Server) getExpand(ctx context.Context, td *TicketData, stream flight.FlightService_DoGetServer) error {
	source, _ := catalog.ParseSource(td.Source)
	target, _ := catalog.ParseSubtype(td.TargetSubtype)

	entries, err := recovery.RecoverToValue(s.logger, "ExpandSubregion", func() ([]catalog.CatalogEntry, error) {
		return s.backend.ExpandSubregion(ctx, source, td.SourceID, target)
	})
	if err != nil {
		return statusFromError(err)
	}

	record := s.entryRecord(entries)
	defer record.Release()
	return s.writeSingle(stream, EntrySchema(), record)
}

func (s *Server) getGeometry(ctx context.Context, td *TicketData, stream flight.FlightService_DoGetServer) error {
	source, _ := catalog.ParseSource(td.Source)
	key := catalog.Key{Source: source, SourceID: td.SourceID}

	entry, ok := s.backend.Snapshot().Lookup(key)
	if !ok {
		return status.Errorf(codes.NotFound, "entry %s not found", key)
	}

	geom, err := recovery.RecoverToValue(s.logger, "GetGeometry", func() (orb.Geometry, error) {
		return s.backend.GetGeometry(ctx, source, td.SourceID)
	})
	if err != nil {
		return statusFromError(err)
	}

	record, err := s.geometryRecord(entry, geom)
	if err != nil {
		return status.Error(codes.Internal, err.Error())
	}
	defer record.Release()
	return s.writeSingle(stream, GeometrySchema(), record)
}

// writeSingle streams one record batch. Empty results still send the
// schema so clients see zero rows rather than an error.
func (s *Server) writeSingle(stream flight.FlightService_DoGetServer, schema *arrow.Schema, record arrow.RecordBatch) error {
	writer := flight.NewRecordWriter(stream, ipc.WithSchema(schema))
	defer writer.Close()
	if err := writer.Write(record); err != nil {
		return status.Errorf(codes.Internal, "write result: %v", err)
	}
	return nil
}
