package stockholm

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

const sample = `# STOCKHOLM 1.0
#=GF ID 3.40.50.300/FF/12
#=GF DE P-loop containing nucleoside triphosphate hydrolase
#=GF DR CATH: v4.2
#=GF DR DOPS: 82.125
#=GS seqA/1-8 DR CATH; 1abcA01;
seqA/1-8   ACDE-FGH
seqB/3-9   AC.E-FG-

seqA/1-8   KL
seqB/3-9   K-
#=GC seq_cons AC.E-FG.K.
//
`

func TestParseInterleaved(t *testing.T) {
	aln, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(aln.Sequences) != 2 {
		t.Fatalf("expected 2 sequences, got %d", len(aln.Sequences))
	}
	if aln.Sequences[0].Aligned != "ACDE-FGHKL" {
		t.Errorf("blocks not concatenated: %q", aln.Sequences[0].Aligned)
	}
	if got := aln.Feature("DE"); len(got) != 1 || !strings.HasPrefix(got[0], "P-loop") {
		t.Errorf("unexpected DE feature: %v", got)
	}
	if len(aln.Markup) != 2 {
		t.Errorf("expected GS and GC markup kept, got %v", aln.Markup)
	}
}

func TestSummary(t *testing.T) {
	aln, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s := aln.Summary()
	if s.SeqCount != 2 {
		t.Errorf("SeqCount = %d; want 2", s.SeqCount)
	}
	if s.DopsScore != 82.125 {
		t.Errorf("DopsScore = %v; want 82.125", s.DopsScore)
	}
	if s.TotalPositions != 20 || s.GapPositions != 5 {
		t.Errorf("positions = %d gaps = %d; want 20 and 5", s.TotalPositions, s.GapPositions)
	}
	if math.Abs(s.GapPercent()-25) > 1e-9 {
		t.Errorf("GapPercent = %v; want 25", s.GapPercent())
	}
}

func TestDopsScoreMissing(t *testing.T) {
	aln, err := Parse(strings.NewReader("# STOCKHOLM 1.0\n#=GF DR CATH: v4.2\nx AC\n//\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := aln.DopsScore(); got != 0 {
		t.Fatalf("DopsScore = %v; want 0", got)
	}
	if (Summary{}).GapPercent() != 0 {
		t.Fatalf("empty summary should have 0 gap percent")
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"no header":    "seqA ACDE\n//\n",
		"no sequences": "# STOCKHOLM 1.0\n#=GF ID x\n//\n",
		"no end":       "# STOCKHOLM 1.0\nseqA ACDE\n",
		"bad row":      "# STOCKHOLM 1.0\nseqA AC DE\n//\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(in)); !errors.Is(err, ErrFormat) {
				t.Fatalf("expected ErrFormat, got %v", err)
			}
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	aln, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var buf bytes.Buffer
	if err := aln.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "# STOCKHOLM 1.0\n") || !strings.HasSuffix(out, "//\n") {
		t.Fatalf("unexpected framing:\n%s", out)
	}

	again, err := Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if again.Summary() != aln.Summary() {
		t.Fatalf("summary changed after round trip: %+v vs %+v", again.Summary(), aln.Summary())
	}
}
