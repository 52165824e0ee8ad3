package db

import "time"

// Run is one dataset build.
type Run struct {
	ID           int64
	CathVersion  string
	StartedAt    time.Time
	FinishedAt   time.Time
	TotalFunfams int
	ReportRows   int
}

// Alignment is a retrieved seed alignment, kept even when its Funfam was
// dropped from the report.
type Alignment struct {
	RunID         int64
	FunfamID      string
	SuperfamilyID string
	FunfamNumber  int
	Category      string
	Path          string
	SeqCount      int
	DopsScore     float64
	GapPercent    float64
	Dropped       bool
	// Content is the STOCKHOLM text, uncompressed.
	Content []byte
}

// ReportRow is one line of the dataset report at its position in the table.
type ReportRow struct {
	RunID      int64
	Position   int
	FunfamID   string
	TopologyID string
	SeqCount   int
	DopsScore  float64
	GapPercent float64
	Category   string
}
