// Package isotype implements the Isotype Detector: scoring a candidate
// constant-region subsequence against a set of isotype profile HMMs
// and returning the best-scoring isotype, if any.
package isotype

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
)

// MinLength is the shortest subsequence the detector will score. Below
// this, a subsequence is rejected without invoking any HMM.
const MinLength = 50

// Hit is a single isotype call.
type Hit struct {
	Isotype string
	Score   float64
	EValue  float64
}

// ScoringFailedError reports that every configured HMM failed to
// produce a usable score (subprocess crash or timeout on all of
// them). It downgrades to "no constant domain" rather than failing
// the surrounding annotation.
type ScoringFailedError struct {
	Cause error
}

func (e *ScoringFailedError) Error() string {
	return fmt.Sprintf("isotype scoring failed: %v", e.Cause)
}

func (e *ScoringFailedError) Unwrap() error { return e.Cause }

// Detector scores sequences against a fixed directory of isotype
// profile HMM artifacts using an hmmsearch-compatible binary. The HMM
// directory is a read-only process-wide resource, scanned once at
// construction.
type Detector struct {
	binary  string
	timeout time.Duration
	hmms    []hmmArtifact
	log     *zap.Logger
}

type hmmArtifact struct {
	isotype string
	path    string
}

// NewDetector scans dir for *.hmm artifacts (filenames carry the
// isotype label, e.g. IGHG1.hmm) and builds a Detector that invokes
// binary (an hmmsearch-compatible tool) against each one in turn. If
// dir names a single *.hmm.gz bundle rather than a directory, it is
// decompressed once, through pgzip, into a per-run temp directory
// before scanning.
func NewDetector(binary, dir string, log *zap.Logger) (*Detector, error) {
	if log == nil {
		log = zap.NewNop()
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat hmm path: %w", err)
	}
	if !info.IsDir() && strings.HasSuffix(dir, ".hmm.gz") {
		extracted, err := extractHMMBundle(dir)
		if err != nil {
			return nil, fmt.Errorf("extract hmm bundle: %w", err)
		}
		dir = extracted
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read hmm directory: %w", err)
	}
	var hmms []hmmArtifact
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".hmm") {
			continue
		}
		hmms = append(hmms, hmmArtifact{
			isotype: strings.TrimSuffix(e.Name(), ".hmm"),
			path:    filepath.Join(dir, e.Name()),
		})
	}
	return &Detector{binary: binary, timeout: 30 * time.Second, hmms: hmms, log: log}, nil
}

// extractHMMBundle decompresses a *.hmm.gz bundle — a single archive
// holding every isotype's profile concatenated in HMMER3 flat-file
// format — into a fresh temp directory, splitting it back into one
// <isotype>.hmm file per profile so the rest of the Detector can keep
// treating the HMM set as a plain directory.
func extractHMMBundle(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("open gzip reader: %w", err)
	}
	defer gz.Close()

	raw, err := io.ReadAll(gz)
	if err != nil {
		return "", fmt.Errorf("decompress hmm bundle: %w", err)
	}

	destDir, err := os.MkdirTemp("", "abscribe-isotype-hmms-*")
	if err != nil {
		return "", err
	}

	if err := splitHMMBundle(string(raw), destDir); err != nil {
		return "", err
	}
	return destDir, nil
}

// splitHMMBundle writes one <name>.hmm file per HMMER3 profile found
// in a concatenated flat-file bundle. Each profile is delimited by a
// "NAME" line (the isotype label) and terminated by a "//" line, per
// the HMMER3 text format.
func splitHMMBundle(raw, destDir string) error {
	sc := bufio.NewScanner(strings.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		name    string
		profile strings.Builder
	)

	flush := func() error {
		if name == "" {
			return nil
		}
		destPath := filepath.Join(destDir, name+".hmm")
		if err := os.WriteFile(destPath, []byte(profile.String()), 0644); err != nil {
			return fmt.Errorf("write hmm profile %s: %w", name, err)
		}
		return nil
	}

	for sc.Scan() {
		line := sc.Text()
		profile.WriteString(line)
		profile.WriteByte('\n')

		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "NAME" {
			name = fields[1]
		}
		if strings.TrimSpace(line) == "//" {
			if err := flush(); err != nil {
				return err
			}
			name = ""
			profile.Reset()
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan hmm bundle: %w", err)
	}
	return flush()
}

// Detect scores subsequence against every configured isotype HMM and
// returns the best hit, or nil if none scores. Subsequences shorter
// than MinLength are rejected without scoring.
func (d *Detector) Detect(ctx context.Context, subsequence string) (*Hit, error) {
	if len(subsequence) < MinLength {
		return nil, nil
	}
	if len(d.hmms) == 0 {
		return nil, nil
	}

	fastaPath, cleanup, err := writeTempFasta(subsequence)
	if err != nil {
		return nil, fmt.Errorf("write candidate fasta: %w", err)
	}
	defer cleanup()

	var best *Hit
	var failures int
	for _, hmm := range d.hmms {
		hit, err := d.scoreOne(ctx, hmm, fastaPath)
		if err != nil {
			failures++
			d.log.Warn("hmm scoring skipped",
				zap.String("isotype", hmm.isotype),
				zap.Error(err),
			)
			continue
		}
		if hit == nil {
			continue
		}
		if best == nil || hit.Score > best.Score || (hit.Score == best.Score && hit.EValue < best.EValue) {
			best = hit
		}
	}

	if best == nil && failures == len(d.hmms) {
		return nil, &ScoringFailedError{Cause: fmt.Errorf("all %d hmms failed to score", failures)}
	}

	return best, nil
}

func (d *Detector) scoreOne(ctx context.Context, hmm hmmArtifact, fastaPath string) (*Hit, error) {
	timeout := d.timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, d.binary, "--noali", hmm.path, fastaPath)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("hmmsearch %s: %w", hmm.isotype, err)
	}

	score, evalue, ok := parseBestFullSequenceScore(string(out))
	if !ok {
		return nil, nil
	}
	return &Hit{Isotype: hmm.isotype, Score: score, EValue: evalue}, nil
}

// parseBestFullSequenceScore parses hmmsearch's standard stdout,
// reading the first row of its per-sequence score table — column
// layout grounded on the reference adapter's parsing: fields[0] is the
// full-sequence E-value, fields[1] is the full-sequence score.
func parseBestFullSequenceScore(output string) (score, evalue float64, ok bool) {
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "Query:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		e, errE := strconv.ParseFloat(fields[0], 64)
		s, errS := strconv.ParseFloat(fields[1], 64)
		if errE != nil || errS != nil {
			continue
		}
		return s, e, true
	}
	return 0, 0, false
}

func writeTempFasta(sequence string) (string, func(), error) {
	f, err := os.CreateTemp("", "abscribe-isotype-*.fasta")
	if err != nil {
		return "", func() {}, err
	}
	path := f.Name()
	cleanup := func() { os.Remove(path) }
	if _, err := fmt.Fprintf(f, ">query\n%s\n", sequence); err != nil {
		f.Close()
		cleanup()
		return "", func() {}, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, err
	}
	return path, cleanup, nil
}
