package flight

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/project-zeno/aoi-go/catalog"
	"github.com/project-zeno/aoi-go/search"
)

// catalogBatchRows caps rows per streamed record batch for the catalog op.
const catalogBatchRows = 4096

var entryFields = []arrow.Field{
	{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	{Name: "source", Type: arrow.BinaryTypes.String},
	{Name: "source_id", Type: arrow.BinaryTypes.String},
	{Name: "name", Type: arrow.BinaryTypes.String},
	{Name: "subtype", Type: arrow.BinaryTypes.String},
}

// EntrySchema describes catalog and expansion result rows.
func EntrySchema() *arrow.Schema {
	return arrow.NewSchema(entryFields, nil)
}

// MatchSchema describes search result rows: entry columns plus the
// similarity score and the substring flag.
func MatchSchema() *arrow.Schema {
	fields := append([]arrow.Field{}, entryFields...)
	fields = append(fields,
		arrow.Field{Name: "score", Type: arrow.PrimitiveTypes.Float64},
		arrow.Field{Name: "substring", Type: arrow.FixedWidthTypes.Boolean},
	)
	return arrow.NewSchema(fields, nil)
}

// GeometrySchema describes the single geometry result row.
func GeometrySchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "source", Type: arrow.BinaryTypes.String},
		{Name: "source_id", Type: arrow.BinaryTypes.String},
		{Name: "name", Type: arrow.BinaryTypes.String},
		{Name: "subtype", Type: arrow.BinaryTypes.String},
		NewGeometryField("geometry", false),
	}, nil)
}

// SchemaForOp returns the result schema of a ticket operation.
func SchemaForOp(op string) (*arrow.Schema, error) {
	switch op {
	case OpCatalog, OpExpand:
		return EntrySchema(), nil
	case OpSearch:
		return MatchSchema(), nil
	case OpGeometry:
		return GeometrySchema(), nil
	default:
		return nil, fmt.Errorf("unknown op %q", op)
	}
}

func appendEntry(b *array.RecordBuilder, e *catalog.CatalogEntry) {
	b.Field(0).(*array.Int64Builder).Append(e.ID)
	b.Field(1).(*array.StringBuilder).Append(string(e.Source))
	b.Field(2).(*array.StringBuilder).Append(e.SourceID)
	b.Field(3).(*array.StringBuilder).Append(e.Name)
	b.Field(4).(*array.StringBuilder).Append(string(e.Subtype))
}

func (s *Server) entryRecord(entries []catalog.CatalogEntry) arrow.RecordBatch {
	b := array.NewRecordBuilder(s.allocator, EntrySchema())
	defer b.Release()
	for i := range entries {
		appendEntry(b, &entries[i])
	}
	return b.NewRecordBatch()
}

func (s *Server) matchRecord(matches []search.Match) arrow.RecordBatch {
	b := array.NewRecordBuilder(s.allocator, MatchSchema())
	defer b.Release()
	for _, m := range matches {
		appendEntry(b, m.Entry)
		b.Field(5).(*array.Float64Builder).Append(m.Score)
		b.Field(6).(*array.BooleanBuilder).Append(m.Substring)
	}
	return b.NewRecordBatch()
}

func (s *Server) geometryRecord(e *catalog.CatalogEntry, g orb.Geometry) (arrow.RecordBatch, error) {
	raw, err := wkb.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode geometry: %w", err)
	}
	b := array.NewRecordBuilder(s.allocator, GeometrySchema())
	defer b.Release()
	b.Field(0).(*array.StringBuilder).Append(string(e.Source))
	b.Field(1).(*array.StringBuilder).Append(e.SourceID)
	b.Field(2).(*array.StringBuilder).Append(e.Name)
	b.Field(3).(*array.StringBuilder).Append(string(e.Subtype))
	b.Field(4).(*array.BinaryBuilder).Append(raw)
	return b.NewRecordBatch(), nil
}
