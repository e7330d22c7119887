// Package driver orchestrates verification of whole compilation units. One
// function's defects never abort the unit: every function gets verified, the
// unit's status aggregates the per-function outcomes.
package driver

import (
	"context"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"borrowck/internal/diag"
	"borrowck/internal/ir"
	"borrowck/internal/verify"
)

// Status is the unit-level state machine:
// Pending -> Analyzing -> {Verified, Failed}.
type Status uint8

const (
	StatusPending Status = iota
	StatusAnalyzing
	StatusVerified
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAnalyzing:
		return "analyzing"
	case StatusVerified:
		return "verified"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Event reports progress of one function to an Observer. Events may arrive
// from parallel workers; observers must be safe for concurrent calls.
type Event struct {
	Func   string
	Index  int
	Total  int
	Done   bool
	Failed bool
}

// Options configures one unit verification run.
type Options struct {
	// Jobs is the max number of functions verified in parallel; <= 0 means
	// GOMAXPROCS.
	Jobs int
	// MaxDiagnostics bounds the diagnostics kept per function.
	MaxDiagnostics int
	// WarningsAsErrors makes warning findings fail the function.
	WarningsAsErrors bool
	// Observer, when set, receives begin/end events per function.
	Observer func(Event)
}

// DefaultMaxDiagnostics matches the CLI default.
const DefaultMaxDiagnostics = 100

// FuncResult is the outcome of one function's verification.
type FuncResult struct {
	Name   string
	Bag    *diag.Bag
	Failed bool
	Dur    time.Duration
}

// Result is the outcome of one unit's verification. Bag holds all
// diagnostics merged in function order and sorted; it is identical for every
// run over the same unit regardless of Jobs.
type Result struct {
	Status Status
	Funcs  []FuncResult
	Bag    *diag.Bag
}

// VerifyUnit verifies every function of the unit. Functions share no mutable
// state, so they are distributed over an errgroup worker pool; each worker
// writes into its own slot of the results slice, and bags are merged in
// function order afterwards so the output is deterministic.
//
// Cancellation is observed between functions only: a function that already
// started runs to completion (the fixed point always terminates), further
// functions are skipped and ctx.Err() is returned with the partial result.
func VerifyUnit(ctx context.Context, u *ir.Unit, opts Options) (*Result, error) {
	res := &Result{Status: StatusPending}
	if u == nil || len(u.Funcs) == 0 {
		res.Status = StatusVerified
		res.Bag = diag.NewBag(1)
		return res, nil
	}

	maxDiags := opts.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = DefaultMaxDiagnostics
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if jobs > len(u.Funcs) {
		jobs = len(u.Funcs)
	}

	res.Status = StatusAnalyzing
	res.Funcs = make([]FuncResult, len(u.Funcs))
	total := len(u.Funcs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range u.Funcs {
		g.Go(func(i int) func() error {
			return func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				f := &u.Funcs[i]
				if opts.Observer != nil {
					opts.Observer(Event{Func: f.Name, Index: i, Total: total})
				}

				bag := diag.NewBag(maxDiags)
				vctx := &verify.Context{
					Unit:     u,
					Reporter: diag.NewDedupReporter(diag.BagReporter{Bag: bag}),
				}
				start := time.Now()
				verify.Func(vctx, f)
				failed := bag.HasErrors() || (opts.WarningsAsErrors && bag.HasWarnings())

				// Slot i is owned by this worker; no lock needed.
				res.Funcs[i] = FuncResult{
					Name:   f.Name,
					Bag:    bag,
					Failed: failed,
					Dur:    time.Since(start),
				}
				if opts.Observer != nil {
					opts.Observer(Event{Func: f.Name, Index: i, Total: total, Done: true, Failed: failed})
				}
				return nil
			}
		}(i))
	}
	err := g.Wait()

	mergedCap := maxDiags * len(u.Funcs)
	if mergedCap > math.MaxUint16 {
		mergedCap = math.MaxUint16
	}
	merged := diag.NewBag(mergedCap)
	failed := false
	for i := range res.Funcs {
		if res.Funcs[i].Bag != nil {
			merged.Merge(res.Funcs[i].Bag)
		}
		if res.Funcs[i].Failed {
			failed = true
		}
	}
	merged.Sort()
	res.Bag = merged
	if failed {
		res.Status = StatusFailed
	} else {
		res.Status = StatusVerified
	}
	if err != nil {
		return res, err
	}
	return res, nil
}
