// Package annotate provides the Annotation Orchestrator: the top-level
// entry point that drives the Residue Numbering Adapter and the Domain
// Assembler across a named collection of biologics and aggregates the
// result into an AnnotationRun.
package annotate

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bioab/abscribe/internal/domainasm"
	"github.com/bioab/abscribe/internal/numbering"
	"github.com/bioab/abscribe/internal/scheme"
	"github.com/bioab/abscribe/internal/seqio"
)

// Chain is one named chain's assembled result.
type Chain struct {
	Name             string
	OriginalSequence string
	Domains          []domainasm.DomainRecord
	SchemeUsed       scheme.Scheme
}

// Biologic is one named biologic's assembled chains.
type Biologic struct {
	Name   string
	Chains []Chain
}

// Stats aggregates counts over the primary domain of every chain in a
// run — the first Variable Domain Record, or the first domain if none
// is Variable.
type Stats struct {
	ChainTypeCounts map[string]int
	IsotypeCounts   map[string]int
	SpeciesCounts   map[string]int
}

// Result is the Annotation Orchestrator's aggregate output for one
// request.
type Result struct {
	Biologics  []Biologic
	SchemeUsed scheme.Scheme
	Stats      Stats
}

// ChainError reports that numbering or assembly failed for a single
// chain. Per the propagation policy, a ChainError does not abort the
// rest of the run — other chains and biologics still appear in Result.
type ChainError struct {
	Biologic string
	Chain    string
	Err      error
}

func (e *ChainError) Error() string {
	return e.Biologic + "/" + e.Chain + ": " + e.Err.Error()
}

func (e *ChainError) Unwrap() error { return e.Err }

// AnnotationRun wraps a Result with run identity and timing, mirroring
// the reference implementation's per-request result object.
type AnnotationRun struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Result     Result
	Errors     []ChainError
}

// Orchestrator drives the Residue Numbering Adapter and Domain
// Assembler across a named collection of biologics.
type Orchestrator struct {
	numbering      *numbering.Adapter
	assembler      *domainasm.Assembler
	allowedSpecies []string
	now            func() time.Time
}

// NewOrchestrator builds an Annotation Orchestrator over the given
// numbering adapter and domain assembler.
func NewOrchestrator(numberingAdapter *numbering.Adapter, assembler *domainasm.Assembler) *Orchestrator {
	return &Orchestrator{
		numbering: numberingAdapter,
		assembler: assembler,
		now:       time.Now,
	}
}

// SetAllowedSpecies restricts germline scoring to the given species
// for every chain numbered by this orchestrator. A nil or empty list
// leaves the numbering engine's own default in effect.
func (o *Orchestrator) SetAllowedSpecies(species []string) {
	o.allowedSpecies = species
}

// AnnotateAll runs the orchestrator over a named collection of named
// chain sequences. Biologics are visited in name order, so the output
// order is stable. Chains within a biologic are processed sequentially
// (the biologic-level concurrency lives in ParallelAnnotate); a failed
// chain is recorded as a ChainError and does not prevent the rest of
// the biologic, or the run, from completing.
func (o *Orchestrator) AnnotateAll(ctx context.Context, biologics map[string]map[string]seqio.Sequence, requestedScheme scheme.Scheme) (*AnnotationRun, error) {
	run := &AnnotationRun{
		ID:        uuid.New(),
		StartedAt: o.now(),
	}

	names := make([]string, 0, len(biologics))
	for name := range biologics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		biologic, errs := o.annotateBiologic(ctx, name, biologics[name], requestedScheme)
		run.Result.Biologics = append(run.Result.Biologics, biologic)
		run.Errors = append(run.Errors, errs...)
	}

	// Report the scheme that succeeded: a chain that fell back to IMGT
	// replaces the requested one.
	run.Result.SchemeUsed = requestedScheme
	for _, b := range run.Result.Biologics {
		for _, c := range b.Chains {
			if c.SchemeUsed != requestedScheme {
				run.Result.SchemeUsed = c.SchemeUsed
			}
		}
	}
	run.Result.Stats = computeStats(run.Result.Biologics)
	run.FinishedAt = o.now()
	return run, nil
}

func (o *Orchestrator) annotateBiologic(ctx context.Context, name string, chains map[string]seqio.Sequence, requestedScheme scheme.Scheme) (Biologic, []ChainError) {
	biologic := Biologic{Name: name}
	var errs []ChainError

	for chainName, seq := range chains {
		chain, err := o.annotateChain(ctx, chainName, seq, requestedScheme)
		if err != nil {
			errs = append(errs, ChainError{Biologic: name, Chain: chainName, Err: err})
			continue
		}
		biologic.Chains = append(biologic.Chains, *chain)
	}

	return biologic, errs
}

func (o *Orchestrator) annotateChain(ctx context.Context, chainName string, seq seqio.Sequence, requestedScheme scheme.Scheme) (*Chain, error) {
	numbered, err := o.numbering.Number(ctx, chainName, seq.Letters(), requestedScheme, o.allowedSpecies)
	if err != nil {
		return nil, err
	}

	bestGermlines := numbering.GroupBestGermlines(numbered.HitTable.Decode())

	records, err := o.assembler.Assemble(ctx, seq.Letters(), numbered.SchemeUsed, numbered.Domains, bestGermlines)
	if err != nil {
		return nil, err
	}

	return &Chain{
		Name:             chainName,
		OriginalSequence: seq.Letters(),
		Domains:          records,
		SchemeUsed:       numbered.SchemeUsed,
	}, nil
}

func computeStats(biologics []Biologic) Stats {
	stats := Stats{
		ChainTypeCounts: map[string]int{},
		IsotypeCounts:   map[string]int{},
		SpeciesCounts:   map[string]int{},
	}
	for _, b := range biologics {
		for _, c := range b.Chains {
			primary := primaryDomain(c.Domains)
			if primary == nil {
				continue
			}
			switch primary.Kind {
			case domainasm.KindVariable:
				stats.ChainTypeCounts[string(primary.Variable.ChainType)]++
				stats.SpeciesCounts[primary.Variable.Species]++
			case domainasm.KindConstant:
				stats.IsotypeCounts[primary.Constant.Isotype]++
			}
		}
	}
	return stats
}

// primaryDomain returns the first Variable Domain Record in a chain's
// domain list, or the first domain overall if none is Variable.
func primaryDomain(records []domainasm.DomainRecord) *domainasm.DomainRecord {
	if len(records) == 0 {
		return nil
	}
	for i := range records {
		if records[i].Kind == domainasm.KindVariable {
			return &records[i]
		}
	}
	return &records[0]
}
