package dataset

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/japaniel/cathbaker/pkg/funfam"
	"github.com/japaniel/cathbaker/pkg/logger"
	"github.com/japaniel/cathbaker/pkg/stockholm"
	"github.com/rs/zerolog"
)

// RecordLoader provides the Funfam listing of a CATH version.
type RecordLoader interface {
	Load(ctx context.Context, version string) ([]funfam.Record, error)
}

// AlignmentFetcher downloads the seed alignment of one Funfam.
type AlignmentFetcher interface {
	FetchAlignment(ctx context.Context, version, superfamilyID string, funfamNumber int) ([]byte, error)
}

// Row is one line of the dataset report.
type Row struct {
	FunfamID   string
	TopologyID string
	SeqCount   int
	DopsScore  float64
	GapPercent float64
	Category   string
}

// Fetched describes an alignment written to disk, including ones later dropped.
type Fetched struct {
	Record   funfam.Record
	Category string
	Path     string
	Summary  stockholm.Summary
	// Content is the alignment as written to Path.
	Content []byte
	Dropped bool
}

// Section is the outcome of one category.
type Section struct {
	Title      string
	Label      string
	Candidates int
	Unique     int
	Rows       []Row
}

// Result is a complete dataset build.
type Result struct {
	Version       string
	TotalFunfams  int
	Superfamilies int
	Topologies    int
	Filtered      int
	Sections      []Section
	// Rows is every section's rows concatenated in category order.
	Rows    []Row
	Fetched []Fetched
}

// Pipeline builds the benchmark dataset for a CATH version.
type Pipeline struct {
	Config     Config
	Loader     RecordLoader
	Alignments AlignmentFetcher
	Log        zerolog.Logger
}

// New creates a Pipeline. Pass zerolog.Nop() to silence it.
func New(cfg Config, loader RecordLoader, alignments AlignmentFetcher, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		Config:     cfg,
		Loader:     loader,
		Alignments: alignments,
		Log:        log,
	}
}

// Run loads the Funfams of version and builds the dataset. Any fetch or
// parse error aborts the run and no Result is returned.
func (p *Pipeline) Run(ctx context.Context, version string) (*Result, error) {
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	logger.Title(p.Log, "LOADING FUNFAM DATA")
	records, err := p.Loader.Load(ctx, version)
	if err != nil {
		return nil, fmt.Errorf("load funfams: %w", err)
	}
	return p.Build(ctx, version, records)
}

// Build runs every step after loading on records.
func (p *Pipeline) Build(ctx context.Context, version string, records []funfam.Record) (*Result, error) {
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(p.Config.AlignmentDir, 0o755); err != nil {
		return nil, fmt.Errorf("create alignment dir: %w", err)
	}

	res := &Result{Version: version, TotalFunfams: len(records)}
	sfams := make(map[string]struct{})
	tops := make(map[string]struct{})
	for _, r := range records {
		sfams[r.SuperfamilyID] = struct{}{}
		tops[r.TopologyID()] = struct{}{}
	}
	res.Superfamilies, res.Topologies = len(sfams), len(tops)
	p.Log.Info().Msgf("Found %d funfams from %d unique superfamilies and %d unique folds",
		res.TotalFunfams, res.Superfamilies, res.Topologies)

	logger.Title(p.Log, "APPLYING GLOBAL FILTERS")
	filtered := GlobalFilter(p.Config, records)
	res.Filtered = len(filtered)
	logger.KV(p.Log, fmt.Sprintf("High sequence diversity (seed_dops_score >= %v):", p.Config.MinDopsScore),
		logger.Count(len(filtered), len(records)))

	logger.Title(p.Log, "CREATING DATASET CATEGORIES")
	cands := Categorize(p.Config.Categories(), filtered)
	for _, c := range cands {
		logger.KV(p.Log, fmt.Sprintf("Funfams with %s:", c.Category.Title), logger.Count(len(c.Records), len(filtered)))
	}

	logger.Title(p.Log, "WRITING FUNFAM ALIGNMENTS")
	unique, _ := Dedup(cands, nil)
	for i, c := range unique {
		logger.Title(p.Log, fmt.Sprintf("Working on %d funfams with %s ...", len(cands[i].Records), c.Category.Title))
		logger.KV(p.Log, "Funfams with unique topologies:", logger.Count(len(c.Records), res.Topologies))

		rows, fetched, err := p.retrieve(ctx, version, c)
		if err != nil {
			return nil, err
		}
		res.Sections = append(res.Sections, Section{
			Title:      c.Category.Title,
			Label:      c.Category.Label,
			Candidates: len(cands[i].Records),
			Unique:     len(c.Records),
			Rows:       rows,
		})
		res.Rows = append(res.Rows, rows...)
		res.Fetched = append(res.Fetched, fetched...)
	}
	return res, nil
}

// retrieve downloads, stores and re-checks the alignment of every record
// in c, one at a time.
func (p *Pipeline) retrieve(ctx context.Context, version string, c Candidates) ([]Row, []Fetched, error) {
	var (
		rows    []Row
		fetched []Fetched
	)
	for _, ff := range c.Records {
		id := ff.ID()
		raw, err := p.Alignments.FetchAlignment(ctx, version, ff.SuperfamilyID, ff.FunfamNumber)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch alignment %s: %w", id, err)
		}
		aln, err := stockholm.Parse(bytes.NewReader(raw))
		if err != nil {
			return nil, nil, fmt.Errorf("parse alignment %s: %w", id, err)
		}
		sum := aln.Summary()

		// The alignment is stored even when the record is dropped below.
		path := filepath.Join(p.Config.AlignmentDir, AlignmentFileName(version, ff))
		p.Log.Info().Str("funfam", id).Str("file", path).Msg("Saving Funfam alignment")
		var buf bytes.Buffer
		if err := aln.Write(&buf); err != nil {
			return nil, nil, fmt.Errorf("encode alignment %s: %w", id, err)
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return nil, nil, fmt.Errorf("write alignment %s: %w", id, err)
		}
		f := Fetched{Record: ff, Category: c.Category.Label, Path: path, Summary: sum, Content: buf.Bytes()}

		if sum.DopsScore < p.Config.MinDopsScore {
			p.Log.Warn().
				Str("funfam", id).
				Float64("dops_score", sum.DopsScore).
				Float64("api_dops_score", ff.SeedDopsScore).
				Msg("alignment below diversity threshold (SKIPPING)")
			f.Dropped = true
			fetched = append(fetched, f)
			continue
		}
		if sum.SeqCount != ff.NumMembersInSeedAln {
			p.Log.Warn().
				Str("funfam", id).
				Int("seq_count", sum.SeqCount).
				Int("api_seq_count", ff.NumMembersInSeedAln).
				Msg("alignment sequence count differs from API")
		}

		fetched = append(fetched, f)
		rows = append(rows, Row{
			FunfamID:   id,
			TopologyID: ff.TopologyID(),
			SeqCount:   sum.SeqCount,
			DopsScore:  sum.DopsScore,
			GapPercent: sum.GapPercent(),
			Category:   c.Category.Label,
		})
	}
	return rows, fetched, nil
}

// AlignmentFileName is the local file name of a Funfam seed alignment.
func AlignmentFileName(version string, ff funfam.Record) string {
	return "cath." + version + "." + ff.SuperfamilyID + "-ff-" + strconv.Itoa(ff.FunfamNumber) + ".seed.sto"
}
