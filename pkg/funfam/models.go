package funfam

import (
	"strconv"
	"strings"
)

// Provenance says whether a family's representative has a known structure.
type Provenance int

const (
	UnknownProvenance Provenance = iota
	// Structural representatives come from CATH domains.
	Structural
	// NonStructural representatives are UniProt sequences.
	NonStructural
)

func (p Provenance) String() string {
	switch p {
	case Structural:
		return "structural"
	case NonStructural:
		return "non-structural"
	default:
		return "unknown"
	}
}

// Record is one Funfam as reported by the CATH API.
type Record struct {
	CathVersion         string
	Name                string
	FunfamNumber        int
	SuperfamilyID       string
	RepID               string
	RepSourceID         string
	SeedDopsScore       float64
	InclusionBitscore   float64
	InclusionEValue     float64
	NumMembersInFunfam  int
	NumMembersInSeedAln int
}

// ID returns the composite identifier, e.g. "1.10.8.10-ff-14534".
func (r Record) ID() string {
	return r.SuperfamilyID + "-ff-" + strconv.Itoa(r.FunfamNumber)
}

// TopologyID returns the C.A.T code used as the grouping key.
func (r Record) TopologyID() string {
	return truncateID(r.SuperfamilyID, 3)
}

// ArchID returns the C.A code.
func (r Record) ArchID() string {
	return truncateID(r.SuperfamilyID, 2)
}

// Provenance maps the representative's source database to a Provenance.
func (r Record) Provenance() Provenance {
	switch r.RepSourceID {
	case "cath":
		return Structural
	case "uniprot":
		return NonStructural
	default:
		return UnknownProvenance
	}
}

func (r Record) String() string {
	return r.SuperfamilyID + "/FF/" + strconv.Itoa(r.FunfamNumber) + `: "` + r.Name +
		`" (DOPS: ` + strconv.FormatFloat(r.SeedDopsScore, 'f', -1, 64) + ")"
}

func truncateID(id string, n int) string {
	parts := strings.Split(id, ".")
	if len(parts) > n {
		parts = parts[:n]
	}
	return strings.Join(parts, ".")
}
