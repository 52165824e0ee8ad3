package funfam

import "testing"

func TestTopologyIDTruncatesSuperfamily(t *testing.T) {
	tests := []struct {
		sfam, topology, arch string
	}{
		{"3.40.50.300", "3.40.50", "3.40"},
		{"1.10.8.10", "1.10.8", "1.10"},
		{"2.60.40", "2.60.40", "2.60"},
		{"4", "4", "4"},
	}
	for _, tt := range tests {
		r := Record{SuperfamilyID: tt.sfam}
		if got := r.TopologyID(); got != tt.topology {
			t.Errorf("TopologyID(%q) = %q; want %q", tt.sfam, got, tt.topology)
		}
		if got := r.ArchID(); got != tt.arch {
			t.Errorf("ArchID(%q) = %q; want %q", tt.sfam, got, tt.arch)
		}
	}
}

func TestRecordIdentifiers(t *testing.T) {
	r := Record{SuperfamilyID: "3.40.50.300", FunfamNumber: 42, Name: "ATPase", SeedDopsScore: 81.25}
	if got, want := r.ID(), "3.40.50.300-ff-42"; got != want {
		t.Fatalf("ID() = %q; want %q", got, want)
	}
	if got, want := r.String(), `3.40.50.300/FF/42: "ATPase" (DOPS: 81.25)`; got != want {
		t.Fatalf("String() = %q; want %q", got, want)
	}
}

func TestProvenance(t *testing.T) {
	tests := []struct {
		source string
		want   Provenance
	}{
		{"cath", Structural},
		{"uniprot", NonStructural},
		{"", UnknownProvenance},
		{"pdb", UnknownProvenance},
	}
	for _, tt := range tests {
		if got := (Record{RepSourceID: tt.source}).Provenance(); got != tt.want {
			t.Errorf("Provenance(%q) = %v; want %v", tt.source, got, tt.want)
		}
	}
}
