package catalog

import "testing"

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name       string
		fallback   string
		components []string
		want       string
	}{
		{
			name:       "all components present",
			fallback:   "555577",
			components: []string{"Lisbon", "Lisboa", "PRT"},
			want:       "Lisbon, Lisboa, PRT",
		},
		{
			name:       "empty components skipped",
			fallback:   "12345",
			components: []string{"", "Serra da Canastra", "BRA"},
			want:       "Serra da Canastra, BRA",
		},
		{
			name:       "all empty falls back to source id",
			fallback:   "BRA",
			components: []string{"", "", ""},
			want:       "BRA",
		},
		{
			name:       "single component",
			fallback:   "x",
			components: []string{"France"},
			want:       "France",
		},
		{
			name:       "no components",
			fallback:   "IDN.3_1",
			components: nil,
			want:       "IDN.3_1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DisplayName(tt.fallback, tt.components...)
			if got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseSubtype(t *testing.T) {
	for _, s := range []string{"country", "state", "district", "municipality", "locality", "neighbourhood", "key-biodiversity-area", "protected-area", "indigenous-and-community-land", "custom-area"} {
		if _, err := ParseSubtype(s); err != nil {
			t.Errorf("ParseSubtype(%q) unexpected error: %v", s, err)
		}
	}
	if _, err := ParseSubtype("state-province"); err == nil {
		t.Error("ParseSubtype accepted unknown subtype")
	}
	if _, err := ParseSubtype(""); err == nil {
		t.Error("ParseSubtype accepted empty subtype")
	}
}

func TestParseSource(t *testing.T) {
	if src, err := ParseSource("GADM"); err != nil || src != SourceGADM {
		t.Errorf("ParseSource(GADM) = %v, %v", src, err)
	}
	if _, err := ParseSource("osm"); err == nil {
		t.Error("ParseSource accepted unknown source")
	}
}

func TestSpecificityOrdering(t *testing.T) {
	// A municipality must outrank a country in tie-breaks.
	if SubtypeMunicipality.Specificity() <= SubtypeCountry.Specificity() {
		t.Error("municipality should be more specific than country")
	}
	if SubtypeNeighbourhood.Specificity() <= SubtypeState.Specificity() {
		t.Error("neighbourhood should be more specific than state")
	}
	if SubtypeProtectedArea.Specificity() <= SubtypeCountry.Specificity() {
		t.Error("protected-area should be more specific than country")
	}
}

func TestEntryValidate(t *testing.T) {
	valid := CatalogEntry{
		ID:       1,
		Source:   SourceWDPA,
		SourceID: "555577",
		Name:     "Lisbon, Lisboa, PRT",
		Subtype:  SubtypeProtectedArea,
	}
	valid.SetProvenance()

	tests := []struct {
		name    string
		mutate  func(*CatalogEntry)
		wantErr bool
	}{
		{name: "valid", mutate: func(e *CatalogEntry) {}, wantErr: false},
		{name: "empty source id", mutate: func(e *CatalogEntry) { e.SourceID = "" }, wantErr: true},
		{name: "empty name", mutate: func(e *CatalogEntry) { e.Name = "" }, wantErr: true},
		{name: "unknown subtype", mutate: func(e *CatalogEntry) { e.Subtype = "reserve" }, wantErr: true},
		{name: "no provenance flag", mutate: func(e *CatalogEntry) { e.IsWDPA = false }, wantErr: true},
		{name: "two provenance flags", mutate: func(e *CatalogEntry) { e.IsGADM = true }, wantErr: true},
		{name: "flag disagrees with source", mutate: func(e *CatalogEntry) { e.IsWDPA = false; e.IsKBA = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			err := e.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetProvenance(t *testing.T) {
	for _, src := range Sources {
		e := CatalogEntry{Source: src, SourceID: "x", Name: "x", Subtype: SubtypeCountry}
		if src == SourceKBA {
			e.Subtype = SubtypeKBA
		}
		e.SetProvenance()
		if err := e.Validate(); err != nil {
			t.Errorf("source %s: %v", src, err)
		}
	}
}
