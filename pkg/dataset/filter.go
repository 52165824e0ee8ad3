package dataset

import (
	"github.com/japaniel/cathbaker/pkg/funfam"
	"github.com/tidwall/match"
)

// Candidates are the Funfams selected for one category.
type Candidates struct {
	Category Category
	Records  []funfam.Record
}

// SeenSet is the set of grouping keys already claimed by a category.
type SeenSet map[string]struct{}

// Has reports whether key has been claimed.
func (s SeenSet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

func (s SeenSet) clone() SeenSet {
	out := make(SeenSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// GlobalFilter keeps diverse Funfams with enough seed members.
func GlobalFilter(cfg Config, records []funfam.Record) []funfam.Record {
	var out []funfam.Record
	for _, r := range records {
		if r.SeedDopsScore < cfg.MinDopsScore || r.NumMembersInSeedAln <= cfg.MinSequences {
			continue
		}
		if !matchSuperfamily(cfg.SuperfamilyPattern, r.SuperfamilyID) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchSuperfamily(pattern, sfam string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	return match.Match(sfam, pattern)
}

// Categorize evaluates every category independently on the same records.
// A record may appear in several categories.
func Categorize(categories []Category, records []funfam.Record) []Candidates {
	out := make([]Candidates, 0, len(categories))
	for _, c := range categories {
		cand := Candidates{Category: c}
		for _, r := range records {
			if c.Include(r) {
				cand.Records = append(cand.Records, r)
			}
		}
		out = append(out, cand)
	}
	return out
}

// Dedup walks the categories in order and keeps, for each grouping key,
// only the first record seen across all of them. seen holds keys claimed
// before this call; it is not modified. The returned set includes every
// key claimed by the returned candidates.
func Dedup(cands []Candidates, seen SeenSet) ([]Candidates, SeenSet) {
	claimed := seen.clone()
	out := make([]Candidates, 0, len(cands))
	for _, c := range cands {
		var kept []funfam.Record
		kept, claimed = DedupRecords(c.Records, claimed)
		out = append(out, Candidates{Category: c.Category, Records: kept})
	}
	return out, claimed
}

// DedupRecords keeps the first record of each unclaimed grouping key.
// The returned set is seen plus the newly claimed keys; seen is updated in place.
func DedupRecords(records []funfam.Record, seen SeenSet) ([]funfam.Record, SeenSet) {
	if seen == nil {
		seen = make(SeenSet)
	}
	var kept []funfam.Record
	for _, r := range records {
		key := r.TopologyID()
		if seen.Has(key) {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, r)
	}
	return kept, seen
}
