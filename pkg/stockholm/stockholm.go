// Package stockholm reads and writes multiple sequence alignments in the
// STOCKHOLM 1.0 format used by CATH for Funfam seed alignments.
package stockholm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const header = "# STOCKHOLM 1.0"

// ErrFormat is returned for content that is not a STOCKHOLM alignment.
var ErrFormat = errors.New("stockholm: invalid format")

// Feature is one #=GF line.
type Feature struct {
	Tag  string
	Text string
}

// Sequence is one aligned row, with gap characters kept.
type Sequence struct {
	Name    string
	Aligned string
}

// Alignment is a parsed STOCKHOLM alignment.
type Alignment struct {
	Features  []Feature
	Sequences []Sequence
	// Markup holds #=GS, #=GR and #=GC lines verbatim.
	Markup []string
}

// Summary holds the statistics observed in an alignment.
type Summary struct {
	SeqCount       int
	DopsScore      float64
	TotalPositions int
	GapPositions   int
}

// Parse reads a single alignment from r.
func Parse(r io.Reader) (*Alignment, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	aln := &Alignment{}
	index := make(map[string]int)
	var sawHeader, sawEnd bool
	lineNo := 0

	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !sawHeader {
			if !strings.HasPrefix(trimmed, "# STOCKHOLM") {
				return nil, fmt.Errorf("%w: line %d: missing %q header", ErrFormat, lineNo, header)
			}
			sawHeader = true
			continue
		}
		if trimmed == "//" {
			sawEnd = true
			break
		}

		switch {
		case strings.HasPrefix(trimmed, "#=GF"):
			fields := strings.SplitN(trimmed, " ", 2)
			if len(fields) < 2 {
				return nil, fmt.Errorf("%w: line %d: empty #=GF line", ErrFormat, lineNo)
			}
			rest := strings.TrimSpace(fields[1])
			tag, text := rest, ""
			if i := strings.IndexAny(rest, " \t"); i >= 0 {
				tag, text = rest[:i], strings.TrimSpace(rest[i+1:])
			}
			aln.Features = append(aln.Features, Feature{Tag: tag, Text: text})
		case strings.HasPrefix(trimmed, "#=GS"), strings.HasPrefix(trimmed, "#=GR"), strings.HasPrefix(trimmed, "#=GC"):
			aln.Markup = append(aln.Markup, trimmed)
		case strings.HasPrefix(trimmed, "#"):
			// free text comment
		default:
			fields := strings.Fields(trimmed)
			if len(fields) != 2 {
				return nil, fmt.Errorf("%w: line %d: expected \"<name> <sequence>\"", ErrFormat, lineNo)
			}
			// Interleaved blocks repeat names; rows are concatenated.
			if i, ok := index[fields[0]]; ok {
				aln.Sequences[i].Aligned += fields[1]
				continue
			}
			index[fields[0]] = len(aln.Sequences)
			aln.Sequences = append(aln.Sequences, Sequence{Name: fields[0], Aligned: fields[1]})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read alignment: %w", err)
	}
	if !sawHeader {
		return nil, fmt.Errorf("%w: empty input", ErrFormat)
	}
	if !sawEnd {
		return nil, fmt.Errorf("%w: missing \"//\" terminator", ErrFormat)
	}
	if len(aln.Sequences) == 0 {
		return nil, fmt.Errorf("%w: no sequences", ErrFormat)
	}
	return aln, nil
}

// Feature returns the text of every #=GF line with tag, in order.
func (a *Alignment) Feature(tag string) []string {
	var out []string
	for _, f := range a.Features {
		if f.Tag == tag {
			out = append(out, f.Text)
		}
	}
	return out
}

// DopsScore returns the score recorded in a "#=GF DR DOPS: <score>" line, or 0.
func (a *Alignment) DopsScore() float64 {
	for _, text := range a.Feature("DR") {
		if !strings.HasPrefix(text, "DOPS") {
			continue
		}
		v := strings.TrimLeft(strings.TrimPrefix(text, "DOPS"), ":; \t")
		v = strings.TrimRight(v, ";. \t")
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}

// Summary computes the observed statistics of the alignment.
func (a *Alignment) Summary() Summary {
	s := Summary{
		SeqCount:  len(a.Sequences),
		DopsScore: a.DopsScore(),
	}
	for _, seq := range a.Sequences {
		s.TotalPositions += len(seq.Aligned)
		s.GapPositions += strings.Count(seq.Aligned, "-") + strings.Count(seq.Aligned, ".")
	}
	return s
}

// GapPercent is the share of alignment positions that are gaps, in percent.
func (s Summary) GapPercent() float64 {
	if s.TotalPositions == 0 {
		return 0
	}
	return 100 * float64(s.GapPositions) / float64(s.TotalPositions)
}

// Write serializes the alignment in STOCKHOLM 1.0 format.
func (a *Alignment) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, header)
	for _, f := range a.Features {
		if f.Text == "" {
			fmt.Fprintf(bw, "#=GF %s\n", f.Tag)
			continue
		}
		fmt.Fprintf(bw, "#=GF %s %s\n", f.Tag, f.Text)
	}

	var trailing []string
	for _, m := range a.Markup {
		if strings.HasPrefix(m, "#=GS") {
			fmt.Fprintln(bw, m)
		} else {
			trailing = append(trailing, m)
		}
	}

	width := 0
	for _, seq := range a.Sequences {
		if len(seq.Name) > width {
			width = len(seq.Name)
		}
	}
	for _, seq := range a.Sequences {
		fmt.Fprintf(bw, "%-*s %s\n", width, seq.Name, seq.Aligned)
	}
	for _, m := range trailing {
		fmt.Fprintln(bw, m)
	}
	fmt.Fprintln(bw, "//")
	return bw.Flush()
}
