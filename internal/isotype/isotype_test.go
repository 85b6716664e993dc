package isotype

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/pgzip"
)

func TestParseBestFullSequenceScore(t *testing.T) {
	out := `# hmmsearch :: search profile(s) against a sequence database
Query:       IGHG1  [M=100]
Scores for complete sequences (score includes all domains):
   --- full sequence ---   --- best 1 domain ---    -#dom-
    E-value  score  bias    E-value  score  bias    exp  N  Sequence Description
    ------- ------ -----    ------- ------ -----   ---- --  -------- -----------
    1.2e-40  135.2   0.4    1.3e-40  135.0   0.4    1.0  1  query
`
	score, evalue, ok := parseBestFullSequenceScore(out)
	if !ok {
		t.Fatalf("expected a parsed score")
	}
	if score != 135.2 {
		t.Errorf("score = %v, want 135.2", score)
	}
	if evalue != 1.2e-40 {
		t.Errorf("evalue = %v, want 1.2e-40", evalue)
	}
}

func TestParseBestFullSequenceScore_NoData(t *testing.T) {
	_, _, ok := parseBestFullSequenceScore("# no hits found\n")
	if ok {
		t.Fatalf("expected no score parsed from empty output")
	}
}

func TestDetect_RejectsShortSubsequence(t *testing.T) {
	d := &Detector{binary: "hmmsearch", hmms: []hmmArtifact{{isotype: "IGHG1", path: "/dev/null"}}}
	hit, err := d.Detect(nil, "SHORT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit != nil {
		t.Fatalf("expected nil hit for a subsequence below MinLength")
	}
}

func TestDetect_NoHMMsConfigured(t *testing.T) {
	d := &Detector{binary: "hmmsearch"}
	long := make([]byte, MinLength+10)
	for i := range long {
		long[i] = 'A'
	}
	hit, err := d.Detect(nil, string(long))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit != nil {
		t.Fatalf("expected nil hit when no hmms are configured")
	}
}

func TestHit_TieBreaksOnLowerEValue(t *testing.T) {
	candidates := []*Hit{
		{Isotype: "IGHG1", Score: 100, EValue: 1e-10},
		{Isotype: "IGHG2", Score: 100, EValue: 1e-20},
	}
	var best *Hit
	for _, c := range candidates {
		if best == nil || c.Score > best.Score || (c.Score == best.Score && c.EValue < best.EValue) {
			best = c
		}
	}
	if best.Isotype != "IGHG2" {
		t.Errorf("expected IGHG2 to win the evalue tiebreak, got %s", best.Isotype)
	}
}

func TestSplitHMMBundle_WritesOneFilePerProfile(t *testing.T) {
	bundle := "HMMER3/f\nNAME  IGHG1\nLENG  100\n//\nHMMER3/f\nNAME  IGHG2\nLENG  110\n//\n"
	destDir := t.TempDir()

	if err := splitHMMBundle(bundle, destDir); err != nil {
		t.Fatalf("splitHMMBundle: %v", err)
	}

	for _, isotype := range []string{"IGHG1", "IGHG2"} {
		path := filepath.Join(destDir, isotype+".hmm")
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("expected %s to exist: %v", path, err)
		}
		if !bytes.Contains(data, []byte("NAME  "+isotype)) {
			t.Errorf("%s content missing NAME line: %s", path, data)
		}
	}
}

func TestNewDetector_ExtractsGzippedBundle(t *testing.T) {
	bundle := "HMMER3/f\nNAME  IGHA1\nLENG  90\n//\n"

	dir := t.TempDir()
	gzPath := filepath.Join(dir, "isotypes.hmm.gz")
	f, err := os.Create(gzPath)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	gw := pgzip.NewWriter(f)
	if _, err := gw.Write([]byte(bundle)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("close gzip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	d, err := NewDetector("hmmsearch", gzPath, nil)
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	if len(d.hmms) != 1 || d.hmms[0].isotype != "IGHA1" {
		t.Fatalf("unexpected hmms: %+v", d.hmms)
	}
}
