package annotate

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/bioab/abscribe/internal/scheme"
	"github.com/bioab/abscribe/internal/seqio"
)

// WorkItem holds one biologic ready for annotation.
type WorkItem struct {
	Seq      int
	Biologic string
	Chains   map[string]seqio.Sequence
}

// WorkResult holds the annotation output for a single biologic.
type WorkResult struct {
	Seq      int
	Biologic string
	Result   Biologic
	Errs     []ChainError
}

// ParallelAnnotate annotates biologics using a pool of workers. Results
// are sent to the returned channel in arrival order (not sequence
// order); use OrderedCollect to consume them in sequence order. If
// workers is 0, runtime.NumCPU() is used.
func (o *Orchestrator) ParallelAnnotate(ctx context.Context, items <-chan WorkItem, requestedScheme scheme.Scheme, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				biologic, errs := o.annotateBiologic(ctx, item.Biologic, item.Chains, requestedScheme)
				results <- WorkResult{
					Seq:      item.Seq,
					Biologic: item.Biologic,
					Result:   biologic,
					Errs:     errs,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order. It
// buffers out-of-order results in a pending map and emits them as soon
// as the next expected sequence number is available. Blocks until the
// results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	return OrderedCollectWithProgress(results, 0, nil, fn)
}

// OrderedCollectWithProgress is like OrderedCollect but periodically
// calls progress with the number of biologics processed so far. If
// interval is 0 or progress is nil, no progress reporting is done.
func OrderedCollectWithProgress(results <-chan WorkResult, interval time.Duration, progress func(int), fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	var ticker *time.Ticker
	var tickC <-chan time.Time
	if interval > 0 && progress != nil {
		ticker = time.NewTicker(interval)
		tickC = ticker.C
		defer ticker.Stop()
	}

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				for range results {
				}
				return err
			}
		}

		if tickC != nil {
			select {
			case <-tickC:
				progress(nextSeq)
			default:
			}
		}
	}

	return nil
}
