package msa

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Engine runs the MSA pipeline: external-aligner subprocess for
// muscle/mafft/clustalo, or the built-in affine-gap DP aligner for
// pairwise_global/pairwise_local.
type Engine struct {
	MuscleBinary   string
	MAFFTBinary    string
	ClustaloBinary string
	Timeout        time.Duration
	GapOpen        float64
	GapExtend      float64
}

// NewEngine builds an MSA Engine with the spec's default binaries and
// gap penalties.
func NewEngine() *Engine {
	return &Engine{
		MuscleBinary:   "muscle",
		MAFFTBinary:    "mafft",
		ClustaloBinary: "clustalo",
		Timeout:        300 * time.Second,
		GapOpen:        -10.0,
		GapExtend:      -0.5,
	}
}

// Align runs the MSA pipeline over named sequences under the given
// method, returning aligned rows of equal length preserving input
// order. On any subprocess or parse failure it fails closed with
// AlignmentFailedError — no partial matrix is ever returned.
func (e *Engine) Align(ctx context.Context, named []NamedSequence, method Method) (*Result, error) {
	if len(named) == 0 {
		return nil, &AlignmentFailedError{Method: method, Cause: fmt.Errorf("no sequences provided")}
	}

	var aligned []string
	var err error

	switch method {
	case Muscle, MAFFT, Clustalo:
		aligned, err = e.alignExternal(ctx, named, method)
	case PairwiseGlobal, PairwiseLocal:
		aligned, err = e.alignPairwiseProgressive(named, method)
	default:
		err = fmt.Errorf("unsupported alignment method %q", method)
	}
	if err != nil {
		return nil, &AlignmentFailedError{Method: method, Cause: err}
	}

	return buildResult(named, aligned, method), nil
}

func buildResult(named []NamedSequence, aligned []string, method Method) *Result {
	sequences := make([]AlignedSequence, len(named))
	matrix := make([][]byte, len(named))
	for i, n := range named {
		sequences[i] = AlignedSequence{
			Name:     n.Name,
			Original: n.Original,
			Aligned:  aligned[i],
			Gaps:     gapsOf(aligned[i]),
		}
		matrix[i] = []byte(aligned[i])
	}
	consensus, conservation, quality := Consensus(matrix)
	return &Result{
		Sequences:    sequences,
		Matrix:       matrix,
		Consensus:    consensus,
		Conservation: conservation,
		Quality:      quality,
		Method:       method,
	}
}

func (e *Engine) alignExternal(ctx context.Context, named []NamedSequence, method Method) ([]string, error) {
	inPath, cleanupIn, err := writeFasta(named)
	if err != nil {
		return nil, err
	}
	defer cleanupIn()

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch method {
	case Muscle:
		outPath, cleanupOut, err := tempOutputPath()
		if err != nil {
			return nil, err
		}
		defer cleanupOut()
		cmd := exec.CommandContext(runCtx, e.MuscleBinary, "-align", inPath, "-output", outPath)
		if out, err := cmd.CombinedOutput(); err != nil {
			return nil, fmt.Errorf("muscle: %w (%s)", err, truncate(out))
		}
		return parseFastaFile(outPath, len(named))
	case Clustalo:
		outPath, cleanupOut, err := tempOutputPath()
		if err != nil {
			return nil, err
		}
		defer cleanupOut()
		cmd := exec.CommandContext(runCtx, e.ClustaloBinary, "-i", inPath, "-o", outPath, "--outfmt=fasta")
		if out, err := cmd.CombinedOutput(); err != nil {
			return nil, fmt.Errorf("clustalo: %w (%s)", err, truncate(out))
		}
		return parseFastaFile(outPath, len(named))
	case MAFFT:
		cmd := exec.CommandContext(runCtx, e.MAFFTBinary, "--auto", inPath)
		out, err := cmd.Output()
		if err != nil {
			return nil, fmt.Errorf("mafft: %w", err)
		}
		return parseFastaBytes(out, len(named))
	default:
		return nil, fmt.Errorf("unsupported external method %q", method)
	}
}

// alignPairwiseProgressive aligns N>2 sequences progressively: the
// first two sequences define the growing profile; each subsequent
// sequence aligns against the first row of the current alignment and
// the result widens the profile, mirroring the progressive-merge idea
// the reference implementation uses (there delegating to BioPython,
// here a real affine-gap DP).
func (e *Engine) alignPairwiseProgressive(named []NamedSequence, method Method) ([]string, error) {
	aligner := NewPairwiseAligner(e.GapOpen, e.GapExtend)
	alignPair := aligner.AlignGlobal
	if method == PairwiseLocal {
		alignPair = aligner.AlignLocal
	}

	if len(named) == 1 {
		return []string{named[0].Original}, nil
	}

	profile := []string{named[0].Original}
	for i := 1; i < len(named); i++ {
		a, b := alignPair(profile[0], named[i].Original)
		widened := widenProfile(profile, profile[0], a)
		widened = append(widened, b)
		profile = widened
	}

	return profile, nil
}

// widenProfile re-inserts gap columns newly introduced in updatedFirst
// (relative to oldFirst) into every row of profile, keeping the
// profile's rows mutually consistent as new sequences are folded in.
func widenProfile(profile []string, oldFirst, updatedFirst string) []string {
	if oldFirst == updatedFirst {
		return append([]string(nil), profile...)
	}

	insertedAt := diffGapPositions(oldFirst, updatedFirst)
	widened := make([]string, len(profile))
	for i, row := range profile {
		widened[i] = insertGaps(row, insertedAt)
	}
	widened[0] = updatedFirst
	return widened
}

// diffGapPositions returns the indices (into oldRow's extended
// coordinate space) where newRow carries an extra gap column relative
// to oldRow. Both rows describe the same ungapped sequence.
func diffGapPositions(oldRow, newRow string) []int {
	var positions []int
	i, j := 0, 0
	for j < len(newRow) {
		if i < len(oldRow) && oldRow[i] == newRow[j] {
			i++
			j++
			continue
		}
		// newRow[j] is a gap not present in oldRow at this point.
		positions = append(positions, i)
		j++
	}
	return positions
}

func insertGaps(row string, positions []int) string {
	if len(positions) == 0 {
		return row
	}
	var b strings.Builder
	pos := 0
	ri := 0
	for ri < len(row) {
		for pos < len(positions) && positions[pos] == ri {
			b.WriteByte('-')
			pos++
		}
		b.WriteByte(row[ri])
		ri++
	}
	for pos < len(positions) {
		b.WriteByte('-')
		pos++
	}
	return b.String()
}

func writeFasta(named []NamedSequence) (string, func(), error) {
	f, err := os.CreateTemp("", "abscribe-msa-*.fasta")
	if err != nil {
		return "", func() {}, err
	}
	path := f.Name()
	cleanup := func() { os.Remove(path) }
	for _, n := range named {
		if _, err := fmt.Fprintf(f, ">%s\n%s\n", n.Name, n.Original); err != nil {
			f.Close()
			cleanup()
			return "", func() {}, err
		}
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, err
	}
	return path, cleanup, nil
}

func tempOutputPath() (string, func(), error) {
	f, err := os.CreateTemp("", "abscribe-msa-out-*.fasta")
	if err != nil {
		return "", func() {}, err
	}
	path := f.Name()
	f.Close()
	return path, func() { os.Remove(path) }, nil
}

func parseFastaFile(path string, want int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alignment output: %w", err)
	}
	return parseFastaBytes(data, want)
}

func parseFastaBytes(data []byte, want int) ([]string, error) {
	var seqs []string
	var cur strings.Builder
	started := false

	sc := bufio.NewScanner(strings.NewReader(string(data)))
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, ">") {
			if started {
				seqs = append(seqs, cur.String())
				cur.Reset()
			}
			started = true
			continue
		}
		cur.WriteString(strings.TrimSpace(line))
	}
	if started {
		seqs = append(seqs, cur.String())
	}

	if len(seqs) != want {
		return nil, fmt.Errorf("expected %d aligned sequences, got %d", want, len(seqs))
	}
	l := len(seqs[0])
	for _, s := range seqs {
		if len(s) != l {
			return nil, fmt.Errorf("aligned rows have unequal length")
		}
	}
	return seqs, nil
}

func truncate(b []byte) string {
	const max = 500
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
