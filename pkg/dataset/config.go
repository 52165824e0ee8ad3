package dataset

import (
	"fmt"

	"github.com/japaniel/cathbaker/pkg/funfam"
)

// Category labels, in processing order.
const (
	LowSeq     = "low_seq"
	HighSeq    = "high_seq"
	WithStr    = "with_str"
	WithoutStr = "without_str"
)

// Config holds the thresholds and output locations of a dataset build.
type Config struct {
	// MinDopsScore is the lowest accepted diversity score, inclusive.
	MinDopsScore float64
	// MinSequences is exclusive: a Funfam needs more seed members than this.
	MinSequences      int
	LowSequenceCount  int
	HighSequenceCount int
	// SuperfamilyPattern restricts the build to superfamilies matching a
	// glob such as "3.40.*". Empty or "*" keeps everything.
	SuperfamilyPattern string
	// AlignmentDir receives one .sto file per retrieved alignment.
	AlignmentDir string
}

// DefaultConfig returns the thresholds of the medium benchmark dataset.
func DefaultConfig() Config {
	return Config{
		MinDopsScore:       70,
		MinSequences:       5,
		LowSequenceCount:   50,
		HighSequenceCount:  5000,
		SuperfamilyPattern: "*",
		AlignmentDir:       "alignments",
	}
}

// Validate reports thresholds that cannot select anything sensible.
func (c Config) Validate() error {
	if c.MinDopsScore < 0 {
		return fmt.Errorf("min dops score must not be negative, got %v", c.MinDopsScore)
	}
	if c.MinSequences < 0 {
		return fmt.Errorf("min sequences must not be negative, got %d", c.MinSequences)
	}
	if c.LowSequenceCount <= 0 || c.HighSequenceCount <= 0 {
		return fmt.Errorf("sequence count bounds must be positive, got low=%d high=%d", c.LowSequenceCount, c.HighSequenceCount)
	}
	if c.AlignmentDir == "" {
		return fmt.Errorf("alignment directory must be set")
	}
	return nil
}

// Category is a named subset rule applied to globally filtered Funfams.
type Category struct {
	Title   string
	Label   string
	Include func(funfam.Record) bool
}

// Categories returns the four dataset categories in processing order.
// Earlier categories win grouping keys during deduplication.
func (c Config) Categories() []Category {
	return []Category{
		{
			Title:   "low sequences",
			Label:   LowSeq,
			Include: func(r funfam.Record) bool { return r.NumMembersInFunfam < c.LowSequenceCount },
		},
		{
			Title:   "high sequences",
			Label:   HighSeq,
			Include: func(r funfam.Record) bool { return r.NumMembersInFunfam >= c.HighSequenceCount },
		},
		{
			Title:   "structure",
			Label:   WithStr,
			Include: func(r funfam.Record) bool { return r.Provenance() == funfam.Structural },
		},
		{
			Title:   "no structure",
			Label:   WithoutStr,
			Include: func(r funfam.Record) bool { return r.Provenance() == funfam.NonStructural },
		},
	}
}
