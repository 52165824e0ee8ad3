package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/golang/snappy"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// CreateRun records the start of a dataset build and returns its id.
func CreateRun(db DBExecutor, cathVersion string, startedAt time.Time, totalFunfams int) (int64, error) {
	v := strings.TrimSpace(cathVersion)
	if v == "" {
		return 0, fmt.Errorf("cathVersion must be non-empty")
	}
	res, err := db.Exec(`INSERT INTO runs (cath_version, started_at, total_funfams) VALUES (?, ?, ?)`,
		v, startedAt.UTC(), totalFunfams)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun stamps the end of a build with its report size.
func FinishRun(db DBExecutor, runID int64, finishedAt time.Time, reportRows int) error {
	if runID <= 0 {
		return fmt.Errorf("runID must be positive")
	}
	_, err := db.Exec(`UPDATE runs SET finished_at = ?, report_rows = ? WHERE id = ?`,
		finishedAt.UTC(), reportRows, runID)
	return err
}

// GetRun returns a run by id.
func GetRun(db DBExecutor, runID int64) (Run, error) {
	var (
		r        Run
		finished sql.NullTime
	)
	err := db.QueryRow(`SELECT id, cath_version, started_at, finished_at, total_funfams, report_rows FROM runs WHERE id = ?`, runID).
		Scan(&r.ID, &r.CathVersion, &r.StartedAt, &finished, &r.TotalFunfams, &r.ReportRows)
	if err != nil {
		return Run{}, err
	}
	if finished.Valid {
		r.FinishedAt = finished.Time
	}
	return r, nil
}

// InsertAlignment stores an alignment with its content snappy-compressed.
func InsertAlignment(db DBExecutor, a Alignment) error {
	if a.RunID <= 0 {
		return fmt.Errorf("runID must be positive")
	}
	var content []byte
	if len(a.Content) > 0 {
		content = snappy.Encode(nil, a.Content)
	}
	_, err := db.Exec(`INSERT INTO alignments
		(run_id, funfam_id, superfamily_id, funfam_number, category, path, seq_count, dops_score, gap_per, dropped, content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, funfam_id) DO UPDATE SET
		  category = excluded.category,
		  path = excluded.path,
		  seq_count = excluded.seq_count,
		  dops_score = excluded.dops_score,
		  gap_per = excluded.gap_per,
		  dropped = excluded.dropped,
		  content = excluded.content`,
		a.RunID, a.FunfamID, a.SuperfamilyID, a.FunfamNumber, a.Category, a.Path,
		a.SeqCount, a.DopsScore, a.GapPercent, a.Dropped, content)
	if err != nil {
		return fmt.Errorf("insert alignment %s: %w", a.FunfamID, err)
	}
	return nil
}

// ListAlignments returns the alignments of a run without their content.
func ListAlignments(db DBExecutor, runID int64) ([]Alignment, error) {
	rows, err := db.Query(`SELECT run_id, funfam_id, superfamily_id, funfam_number, category, path, seq_count, dops_score, gap_per, dropped
		FROM alignments WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Alignment
	for rows.Next() {
		var a Alignment
		if err := rows.Scan(&a.RunID, &a.FunfamID, &a.SuperfamilyID, &a.FunfamNumber, &a.Category, &a.Path,
			&a.SeqCount, &a.DopsScore, &a.GapPercent, &a.Dropped); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAlignmentContent returns the decompressed STOCKHOLM text of one alignment.
func GetAlignmentContent(db DBExecutor, runID int64, funfamID string) ([]byte, error) {
	var compressed []byte
	err := db.QueryRow(`SELECT content FROM alignments WHERE run_id = ? AND funfam_id = ?`, runID, funfamID).Scan(&compressed)
	if err != nil {
		return nil, err
	}
	if len(compressed) == 0 {
		return nil, nil
	}
	out, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("decode alignment %s: %w", funfamID, err)
	}
	return out, nil
}

// InsertReportRow stores one report line.
func InsertReportRow(db DBExecutor, r ReportRow) error {
	if r.RunID <= 0 {
		return fmt.Errorf("runID must be positive")
	}
	_, err := db.Exec(`INSERT INTO report_rows (run_id, position, funfam_id, topology_id, seq_count, dops_score, gap_per, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Position, r.FunfamID, r.TopologyID, r.SeqCount, r.DopsScore, r.GapPercent, r.Category)
	if err != nil {
		return fmt.Errorf("insert report row %d: %w", r.Position, err)
	}
	return nil
}

// GetReportRows returns a run's report in table order.
func GetReportRows(db DBExecutor, runID int64) ([]ReportRow, error) {
	rows, err := db.Query(`SELECT run_id, position, funfam_id, topology_id, seq_count, dops_score, gap_per, category
		FROM report_rows WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ReportRow
	for rows.Next() {
		var r ReportRow
		if err := rows.Scan(&r.RunID, &r.Position, &r.FunfamID, &r.TopologyID, &r.SeqCount, &r.DopsScore, &r.GapPercent, &r.Category); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLatestRun returns the most recent run of a CATH version.
func GetLatestRun(db DBExecutor, cathVersion string) (Run, error) {
	var id int64
	err := db.QueryRow(`SELECT id FROM runs WHERE cath_version = ? ORDER BY id DESC LIMIT 1`, cathVersion).Scan(&id)
	if err != nil {
		return Run{}, err
	}
	return GetRun(db, id)
}
