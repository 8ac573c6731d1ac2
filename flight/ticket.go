package flight

import (
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/project-zeno/aoi-go/catalog"
	"github.com/project-zeno/aoi-go/search"
)

// Request operations carried in tickets.
const (
	// OpCatalog streams every catalog entry of the active generation.
	OpCatalog = "catalog"
	// OpSearch runs a fuzzy name search and streams the ranked matches.
	OpSearch = "search"
	// OpExpand streams the subregions of the given subtype contained in
	// an AOI.
	OpExpand = "expand"
	// OpGeometry streams a single row carrying one entry's geometry.
	OpGeometry = "geometry"
)

// TicketData is the decoded content of a Flight ticket. Tickets are
// msgpack-encoded; msgpack keeps them compact and matches the catalog
// cache encoding used elsewhere.
type TicketData struct {
	// Op selects the operation: one of the Op constants.
	Op string `msgpack:"op"`

	// Query is the search text. REQUIRED for OpSearch.
	Query string `msgpack:"query,omitempty"`

	// Threshold overrides the minimum similarity score in [0, 100].
	// OPTIONAL for OpSearch; a pointer so an explicit 0 survives.
	Threshold *float64 `msgpack:"threshold,omitempty"`

	// Subtypes restricts search results. OPTIONAL for OpSearch.
	Subtypes []string `msgpack:"subtypes,omitempty"`

	// Limit caps search results. OPTIONAL for OpSearch; 0 means default.
	Limit int `msgpack:"limit,omitempty"`

	// Source and SourceID identify an entry.
	// REQUIRED for OpExpand and OpGeometry.
	Source   string `msgpack:"source,omitempty"`
	SourceID string `msgpack:"source_id,omitempty"`

	// TargetSubtype is the subtype to expand into. REQUIRED for OpExpand.
	TargetSubtype string `msgpack:"target_subtype,omitempty"`
}

// EncodeTicket validates and serializes a ticket.
func EncodeTicket(td TicketData) ([]byte, error) {
	if err := td.validate(); err != nil {
		return nil, err
	}
	data, err := msgpack.Marshal(&td)
	if err != nil {
		return nil, fmt.Errorf("encode ticket: %w", err)
	}
	return data, nil
}

// DecodeTicket parses and validates an opaque ticket.
func DecodeTicket(raw []byte) (*TicketData, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("ticket cannot be empty")
	}
	var td TicketData
	if err := msgpack.Unmarshal(raw, &td); err != nil {
		return nil, fmt.Errorf("decode ticket: %w", err)
	}
	if err := td.validate(); err != nil {
		return nil, err
	}
	return &td, nil
}

func (td *TicketData) validate() error {
	switch td.Op {
	case OpCatalog:
		return nil
	case OpSearch:
		if strings.TrimSpace(td.Query) == "" {
			return fmt.Errorf("op %s: query is required", td.Op)
		}
		if td.Threshold != nil && (*td.Threshold < 0 || *td.Threshold > 100) {
			return fmt.Errorf("op %s: threshold %v outside [0, 100]", td.Op, *td.Threshold)
		}
		if td.Limit < 0 {
			return fmt.Errorf("op %s: negative limit %d", td.Op, td.Limit)
		}
		for _, s := range td.Subtypes {
			if _, err := catalog.ParseSubtype(s); err != nil {
				return fmt.Errorf("op %s: %w", td.Op, err)
			}
		}
		return nil
	case OpExpand:
		if err := td.validateKey(); err != nil {
			return err
		}
		if _, err := catalog.ParseSubtype(td.TargetSubtype); err != nil {
			return fmt.Errorf("op %s: %w", td.Op, err)
		}
		return nil
	case OpGeometry:
		return td.validateKey()
	case "":
		return fmt.Errorf("ticket has no op")
	default:
		return fmt.Errorf("unknown op %q", td.Op)
	}
}

func (td *TicketData) validateKey() error {
	if _, err := catalog.ParseSource(td.Source); err != nil {
		return fmt.Errorf("op %s: %w", td.Op, err)
	}
	if td.SourceID == "" {
		return fmt.Errorf("op %s: source_id is required", td.Op)
	}
	return nil
}

// searchOptions converts ticket fields to search options.
func (td *TicketData) searchOptions() search.Options {
	opts := search.Options{Limit: td.Limit}
	if td.Threshold != nil {
		opts.Threshold = *td.Threshold
		opts.ThresholdSet = true
	}
	for _, s := range td.Subtypes {
		st, _ := catalog.ParseSubtype(s)
		opts.Subtypes = append(opts.Subtypes, st)
	}
	return opts
}
