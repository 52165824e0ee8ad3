package db

import (
	"bytes"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/japaniel/cathbaker/pkg/dataset"
	"github.com/japaniel/cathbaker/pkg/funfam"
	"github.com/japaniel/cathbaker/pkg/stockholm"
	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Ensure single connection to avoid separate in-memory DBs per connection.
	db.SetMaxOpenConns(1)
	if err := InitDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

const sampleSTO = "# STOCKHOLM 1.0\n#=GF DR DOPS: 82.125\nseq1 AC-D\nseq2 ACGD\n//\n"

func TestCreateAndFinishRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := CreateRun(db, " v4_2_0 ", started, 42)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	r, err := GetRun(db, id)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if r.CathVersion != "v4_2_0" || r.TotalFunfams != 42 || !r.FinishedAt.IsZero() {
		t.Fatalf("unexpected run before finish: %+v", r)
	}
	if !r.StartedAt.Equal(started) {
		t.Fatalf("started_at = %v, want %v", r.StartedAt, started)
	}

	if err := FinishRun(db, id, started.Add(time.Minute), 7); err != nil {
		t.Fatalf("finish run: %v", err)
	}
	r, err = GetRun(db, id)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if r.ReportRows != 7 || r.FinishedAt.IsZero() {
		t.Fatalf("unexpected run after finish: %+v", r)
	}
}

func TestCreateRunRejectsEmptyVersion(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	if _, err := CreateRun(db, "  ", time.Now(), 0); err == nil {
		t.Fatal("expected error for empty version")
	}
}

func TestAlignmentContentRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	runID, err := CreateRun(db, "v4_2_0", time.Now(), 1)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	a := Alignment{
		RunID:         runID,
		FunfamID:      "1.10.8.10-ff-14534",
		SuperfamilyID: "1.10.8.10",
		FunfamNumber:  14534,
		Category:      "low_seq",
		Path:          "alignments/cath.v4_2_0.1.10.8.10-ff-14534.seed.sto",
		SeqCount:      2,
		DopsScore:     82.125,
		GapPercent:    12.5,
		Content:       []byte(sampleSTO),
	}
	if err := InsertAlignment(db, a); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// stored compressed
	var stored []byte
	if err := db.QueryRow(`SELECT content FROM alignments WHERE funfam_id = ?`, a.FunfamID).Scan(&stored); err != nil {
		t.Fatalf("raw select: %v", err)
	}
	if bytes.Equal(stored, a.Content) {
		t.Fatal("content should not be stored verbatim")
	}

	got, err := GetAlignmentContent(db, runID, a.FunfamID)
	if err != nil {
		t.Fatalf("get content: %v", err)
	}
	if string(got) != sampleSTO {
		t.Fatalf("content mismatch: %q", got)
	}

	// upsert marks it dropped
	a.Dropped = true
	if err := InsertAlignment(db, a); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	list, err := ListAlignments(db, runID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || !list[0].Dropped || list[0].Content != nil {
		t.Fatalf("unexpected alignments: %+v", list)
	}
}

func TestGetAlignmentContentMissing(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	if _, err := GetAlignmentContent(db, 1, "nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestReportRowsKeepPosition(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	runID, err := CreateRun(db, "v4_2_0", time.Now(), 2)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	for _, r := range []ReportRow{
		{RunID: runID, Position: 1, FunfamID: "b-ff-2", TopologyID: "2.60.40", Category: "high_seq"},
		{RunID: runID, Position: 0, FunfamID: "a-ff-1", TopologyID: "1.10.8", Category: "low_seq"},
	} {
		if err := InsertReportRow(db, r); err != nil {
			t.Fatalf("insert row: %v", err)
		}
	}
	rows, err := GetReportRows(db, runID)
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 2 || rows[0].FunfamID != "a-ff-1" || rows[1].FunfamID != "b-ff-2" {
		t.Fatalf("rows out of order: %+v", rows)
	}
	if err := InsertReportRow(db, ReportRow{RunID: runID, Position: 0, FunfamID: "dup"}); err == nil {
		t.Fatal("expected duplicate position to fail")
	}
}

func TestSaveResult(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	aln, err := stockholm.Parse(bytes.NewReader([]byte(sampleSTO)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	kept := funfam.Record{CathVersion: "v4_2_0", SuperfamilyID: "1.10.8.10", FunfamNumber: 1}
	dropped := funfam.Record{CathVersion: "v4_2_0", SuperfamilyID: "3.40.50.300", FunfamNumber: 9}
	res := &dataset.Result{
		Version:      "v4_2_0",
		TotalFunfams: 10,
		Rows: []dataset.Row{
			{FunfamID: kept.ID(), TopologyID: kept.TopologyID(), SeqCount: 2, DopsScore: 82.125, GapPercent: 12.5, Category: "low_seq"},
		},
		Fetched: []dataset.Fetched{
			{Record: kept, Category: "low_seq", Path: "a.sto", Summary: aln.Summary(), Content: []byte(sampleSTO)},
			{Record: dropped, Category: "high_seq", Path: "b.sto", Summary: aln.Summary(), Content: []byte(sampleSTO), Dropped: true},
		},
	}

	started := time.Now()
	runID, err := SaveResult(db, res, started, 1)
	if err != nil {
		t.Fatalf("save result: %v", err)
	}

	run, err := GetLatestRun(db, "v4_2_0")
	if err != nil {
		t.Fatalf("latest run: %v", err)
	}
	if run.ID != runID || run.ReportRows != 1 || run.TotalFunfams != 10 || run.FinishedAt.IsZero() {
		t.Fatalf("unexpected run: %+v", run)
	}

	rows, err := GetReportRows(db, runID)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 1 || rows[0].FunfamID != kept.ID() || rows[0].TopologyID != "1.10.8" {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	alns, err := ListAlignments(db, runID)
	if err != nil {
		t.Fatalf("alignments: %v", err)
	}
	if len(alns) != 2 {
		t.Fatalf("expected dropped alignment to be cataloged too, got %+v", alns)
	}
	if alns[0].Dropped || !alns[1].Dropped {
		t.Fatalf("dropped flags wrong: %+v", alns)
	}
	content, err := GetAlignmentContent(db, runID, dropped.ID())
	if err != nil || string(content) != sampleSTO {
		t.Fatalf("dropped content = %q, %v", content, err)
	}
}
