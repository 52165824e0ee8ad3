package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/japaniel/cathbaker/pkg/dataset"
)

// Columns is the header of the dataset TSV.
var Columns = []string{"ff_id", "topology_id", "seq_count", "dops_score", "gap_per", "category"}

// FileName returns the report file name for a dataset and category ("all" for the combined table).
func FileName(name, category string) string {
	return fmt.Sprintf("%s.%s.tsv", name, category)
}

// WriteTSV writes the header and one line per row.
func WriteTSV(w io.Writer, rows []dataset.Row) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.FunfamID,
			r.TopologyID,
			strconv.Itoa(r.SeqCount),
			strconv.FormatFloat(r.DopsScore, 'f', -1, 64),
			strconv.FormatFloat(r.GapPercent, 'f', -1, 64),
			r.Category,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes rows to path through a temporary file so a failed write
// never leaves a partial report behind.
func WriteFile(path string, rows []dataset.Row) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".report-*.tsv")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := WriteTSV(bw, rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
