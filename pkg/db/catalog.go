package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/japaniel/cathbaker/pkg/dataset"
)

// SaveResult writes a finished dataset build to the catalog and returns
// the run id. Rows and alignments are committed in batches of batchSize.
func SaveResult(conn *sql.DB, res *dataset.Result, startedAt time.Time, batchSize int) (int64, error) {
	runID, err := CreateRun(conn, res.Version, startedAt, res.TotalFunfams)
	if err != nil {
		return 0, err
	}

	bw := NewBatchWriter(conn, batchSize)
	for _, f := range res.Fetched {
		a := Alignment{
			RunID:         runID,
			FunfamID:      f.Record.ID(),
			SuperfamilyID: f.Record.SuperfamilyID,
			FunfamNumber:  f.Record.FunfamNumber,
			Category:      f.Category,
			Path:          f.Path,
			SeqCount:      f.Summary.SeqCount,
			DopsScore:     f.Summary.DopsScore,
			GapPercent:    f.Summary.GapPercent(),
			Dropped:       f.Dropped,
			Content:       f.Content,
		}
		if err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
			return InsertAlignment(tx, a)
		}); err != nil {
			bw.Close()
			return 0, err
		}
	}
	for i, r := range res.Rows {
		row := ReportRow{
			RunID:      runID,
			Position:   i,
			FunfamID:   r.FunfamID,
			TopologyID: r.TopologyID,
			SeqCount:   r.SeqCount,
			DopsScore:  r.DopsScore,
			GapPercent: r.GapPercent,
			Category:   r.Category,
		}
		if err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
			return InsertReportRow(tx, row)
		}); err != nil {
			bw.Close()
			return 0, err
		}
	}
	if err := bw.Close(); err != nil {
		return 0, err
	}

	if err := FinishRun(conn, runID, time.Now(), len(res.Rows)); err != nil {
		return 0, err
	}
	return runID, nil
}
