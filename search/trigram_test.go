package search

import (
	"sort"
	"testing"
)

func TestTrigrams(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "single word",
			input: "rio",
			want:  []string{"  r", " ri", "rio", "io "},
		},
		{
			name:  "words split on punctuation and padded independently",
			input: "la paz",
			want:  []string{"  l", " la", "la ", "  p", " pa", "paz", "az "},
		},
		{
			name:  "duplicates collapse",
			input: "aaaa",
			want:  []string{"  a", " aa", "aaa", "aa "},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "punctuation only",
			input: ", - ,",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Trigrams(tt.input)
			sort.Strings(got)
			want := append([]string(nil), tt.want...)
			sort.Strings(want)
			if len(got) != len(want) {
				t.Fatalf("Trigrams(%q) = %v, want %v", tt.input, got, want)
			}
			for i := range got {
				if got[i] != want[i] {
					t.Fatalf("Trigrams(%q) = %v, want %v", tt.input, got, want)
				}
			}
		})
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("lisbon", "lisbon"); got != 100 {
		t.Errorf("identical strings: got %v, want 100", got)
	}
	if got := Similarity("lisbon", "zzqqy"); got != 0 {
		t.Errorf("disjoint strings: got %v, want 0", got)
	}
	if got := Similarity("", "lisbon"); got != 0 {
		t.Errorf("empty query: got %v, want 0", got)
	}

	// A one-letter typo must stay well above unrelated text.
	typo := Similarity("lisbon", "lisbom")
	unrelated := Similarity("lisbon", "jakarta")
	if typo <= unrelated {
		t.Errorf("typo score %v should exceed unrelated score %v", typo, unrelated)
	}
	if typo < 40 {
		t.Errorf("typo score %v unexpectedly low", typo)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	a, b := "georgia", "georgetown"
	if Similarity(a, b) != Similarity(b, a) {
		t.Error("similarity should be symmetric")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"São Paulo", "sao paulo"},
		{"Odémira", "odemira"},
		{"LISBON", "lisbon"},
		{"Köln", "koln"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizedFormsScoreIdentically(t *testing.T) {
	// A Portuguese-accented query must match the folded catalog name.
	if got := Similarity(Normalize("São Tomé"), Normalize("Sao Tome")); got != 100 {
		t.Errorf("folded forms should score 100, got %v", got)
	}
}
