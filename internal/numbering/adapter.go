package numbering

import (
	"context"
	"errors"

	"github.com/bioab/abscribe/internal/scheme"
	"go.uber.org/zap"
)

// Adapter invokes an Engine under the scheme-fallback rule described
// in spec.md §4.2: CGG is not natively supported by the engine, so a
// CGG request is run as Kabat and the result stamped CGG; any other
// engine failure that isn't already running under IMGT triggers a
// single IMGT retry, and the scheme actually used is reported back.
type Adapter struct {
	engine Engine
	log    *zap.Logger
}

// NewAdapter builds an Adapter over the given Engine.
func NewAdapter(engine Engine, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{engine: engine, log: log}
}

// Number runs the numbering engine for one (name, sequence) input
// under the requested scheme, applying the CGG substitution and the
// single-retry-to-IMGT fallback rule.
func (a *Adapter) Number(ctx context.Context, name, sequence string, requested scheme.Scheme, allowedSpecies []string) (Result, error) {
	engineScheme := requested
	if requested == scheme.CGG {
		engineScheme = scheme.Kabat
	}

	domains, hits, err := a.engine.Run(ctx, Request{
		Name:           name,
		Sequence:       sequence,
		Scheme:         engineScheme,
		AllowedSpecies: allowedSpecies,
	})
	if err == nil {
		return Result{Domains: domains, HitTable: hits, SchemeUsed: requested}, nil
	}

	if engineScheme == scheme.IMGT {
		// Already tried IMGT; no further fallback available.
		return Result{}, &FailedError{Chain: name, Cause: err}
	}

	a.log.Warn("numbering engine failed, retrying with imgt",
		zap.String("chain", name),
		zap.String("requested_scheme", string(requested)),
		zap.Error(err),
	)

	domains, hits, retryErr := a.engine.Run(ctx, Request{
		Name:           name,
		Sequence:       sequence,
		Scheme:         scheme.IMGT,
		AllowedSpecies: allowedSpecies,
	})
	if retryErr != nil {
		return Result{}, &FailedError{Chain: name, Cause: errors.Join(err, retryErr)}
	}

	return Result{Domains: domains, HitTable: hits, SchemeUsed: scheme.IMGT}, nil
}
