package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ============================================================================
// sortedKeys Tests
// ============================================================================

func TestSortedKeys(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]string
		want []string
	}{
		{"nil map", nil, []string{}},
		{"single", map[string]string{"a": "1"}, []string{"a"}},
		{"ordering", map[string]string{"b": "", "a": "", "C": ""}, []string{"C", "a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, sortedKeys(tt.in)); diff != "" {
				t.Errorf("sortedKeys mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// ============================================================================
// CandidateColumns Tests
// ============================================================================

func TestCandidateColumns_CatalogFirst(t *testing.T) {
	got := CandidateColumns(nil)
	if diff := cmp.Diff(FieldNames(), got); diff != "" {
		t.Errorf("no records should yield the catalog (-want +got):\n%s", diff)
	}
}

func TestCandidateColumns_ExtrasSortedOnce(t *testing.T) {
	recs := []CandidateRecord{
		{Fields: map[string]string{"zeta": "1", "koi_score": "0.5"}},
		{Fields: map[string]string{"alpha": "2", "zeta": "3"}},
	}

	got := CandidateColumns(recs)

	n := len(KOIFields)
	if len(got) != n+2 {
		t.Fatalf("got %d columns, want %d", len(got), n+2)
	}
	if diff := cmp.Diff([]string{"alpha", "zeta"}, got[n:]); diff != "" {
		t.Errorf("extra columns mismatch (-want +got):\n%s", diff)
	}
	if got[0] != "koi_score" {
		t.Errorf("first column = %q, want koi_score", got[0])
	}
}

func TestCandidateColumns_DoesNotAliasCatalog(t *testing.T) {
	recs := []CandidateRecord{{Fields: map[string]string{"extra": "1"}}}
	cols := CandidateColumns(recs)
	cols[0] = "mutated"

	if FieldNames()[0] != "koi_score" {
		t.Error("CandidateColumns result aliases the field catalog")
	}
}

// ============================================================================
// Field catalog Tests
// ============================================================================

func TestLookupField(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		wantType FieldType
		wantOK   bool
	}{
		{"number", "koi_score", FieldNumber, true},
		{"integer", "koi_count", FieldInteger, true},
		{"unknown", "kepler_name", "", false},
		{"case sensitive", "KOI_SCORE", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, ok := LookupField(tt.field)
			if ok != tt.wantOK || spec.Type != tt.wantType {
				t.Errorf("LookupField(%q) = (%v, %v), want (%v, %v)", tt.field, spec.Type, ok, tt.wantType, tt.wantOK)
			}
		})
	}
}

func TestKOIFields_UniqueNamesAndSides(t *testing.T) {
	seen := make(map[string]bool, len(KOIFields))
	for _, f := range KOIFields {
		if seen[f.Name] {
			t.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = true
		if f.Side != "left" && f.Side != "right" {
			t.Errorf("field %q has side %q", f.Name, f.Side)
		}
		if f.Label == "" {
			t.Errorf("field %q has no label", f.Name)
		}
	}
	if len(KOIFields) != 20 {
		t.Errorf("catalog has %d fields, want 20", len(KOIFields))
	}
}
