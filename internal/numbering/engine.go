package numbering

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/bioab/abscribe/internal/scheme"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Request is a single (name, sequence) input to the numbering engine,
// plus the already-substituted scheme (CGG has already become Kabat by
// the time the Engine sees it — the Adapter owns that substitution).
type Request struct {
	Name           string
	Sequence       string
	Scheme         scheme.Scheme
	AllowedSpecies []string
}

// Engine invokes the external numbering tool for one request. The
// default implementation, ExecEngine, shells out to a configured
// binary; tests substitute a fake Engine.
type Engine interface {
	Run(ctx context.Context, req Request) (Domains []Domain, Hits HitTable, err error)
}

// ExecEngine invokes a numbering-engine binary as a subprocess. The
// binary is expected to accept a FASTA input file and an allowed
// species list and write a JSON document to stdout describing the
// domains, alignment details, and germline hit table for that single
// sequence — the same per-call shape ANARCI-like engines use.
//
// argv: <Binary> --scheme <scheme> --species <csv> <fasta-path>
type ExecEngine struct {
	Binary  string
	Timeout time.Duration
}

// NewExecEngine builds an ExecEngine with the spec's default 30s
// per-call timeout.
func NewExecEngine(binary string) *ExecEngine {
	return &ExecEngine{Binary: binary, Timeout: 30 * time.Second}
}

type engineDoc struct {
	Domains []engineDomain `json:"domains"`
	Hits    struct {
		Header []string   `json:"header"`
		Rows   [][]string `json:"rows"`
	} `json:"hit_table"`
}

type engineDomain struct {
	ChainType  string            `json:"chain_type"`
	Species    string            `json:"species"`
	QueryStart int               `json:"query_start"`
	QueryEnd   int               `json:"query_end"`
	Germlines  map[string]string `json:"germlines"`
	Numbering  []engineResidue   `json:"numbering"`
}

type engineResidue struct {
	Number    int    `json:"number"`
	Insertion string `json:"insertion"`
	Letter    string `json:"letter"`
}

var caseFold = cases.Fold(language.Und)

func (e *ExecEngine) Run(ctx context.Context, req Request) ([]Domain, HitTable, error) {
	if e.Binary == "" {
		return nil, HitTable{}, fmt.Errorf("numbering engine: no binary configured")
	}

	f, err := os.CreateTemp("", "abscribe-numbering-*.fasta")
	if err != nil {
		return nil, HitTable{}, fmt.Errorf("create temp fasta: %w", err)
	}
	fastaPath := f.Name()
	defer os.Remove(fastaPath)

	if _, err := fmt.Fprintf(f, ">%s\n%s\n", req.Name, req.Sequence); err != nil {
		f.Close()
		return nil, HitTable{}, fmt.Errorf("write temp fasta: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, HitTable{}, fmt.Errorf("close temp fasta: %w", err)
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	species := "human,mouse,rat"
	if len(req.AllowedSpecies) > 0 {
		species = joinCSV(req.AllowedSpecies)
	}

	cmd := exec.CommandContext(runCtx, e.Binary,
		"--scheme", string(req.Scheme),
		"--species", species,
		fastaPath,
	)
	out, err := cmd.Output()
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, HitTable{}, fmt.Errorf("numbering engine timed out after %s: %w", timeout, err)
		}
		return nil, HitTable{}, fmt.Errorf("numbering engine failed: %w", err)
	}

	var doc engineDoc
	if err := json.Unmarshal(out, &doc); err != nil {
		return nil, HitTable{}, fmt.Errorf("parse numbering engine output: %w", err)
	}

	domains := make([]Domain, 0, len(doc.Domains))
	for _, d := range doc.Domains {
		residues := make([]NumberedResidue, 0, len(d.Numbering))
		for _, r := range d.Numbering {
			ins := byte(' ')
			if len(r.Insertion) > 0 {
				ins = r.Insertion[0]
			}
			letter := byte('-')
			if len(r.Letter) > 0 {
				letter = r.Letter[0]
			}
			residues = append(residues, NumberedResidue{
				Position: scheme.Position{Number: r.Number, Insertion: ins},
				Letter:   letter,
			})
		}
		domains = append(domains, Domain{
			Residues:   residues,
			QueryStart: d.QueryStart,
			QueryEnd:   d.QueryEnd,
			ChainType:  scheme.ChainType(normalizeToken(d.ChainType)),
			Species:    caseFold.String(d.Species),
			Germlines:  d.Germlines,
		})
	}

	return domains, HitTable{Header: doc.Hits.Header, Rows: doc.Hits.Rows}, nil
}

func normalizeToken(s string) string {
	folded := caseFold.String(s)
	if len(folded) == 0 {
		return ""
	}
	// Chain-type tokens are single uppercase letters (H, K, L).
	return fmt.Sprintf("%c", upperByte(folded[0]))
}

func upperByte(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

func joinCSV(items []string) string {
	out := ""
	for i, it := range items {
		if i > 0 {
			out += ","
		}
		out += it
	}
	return out
}
