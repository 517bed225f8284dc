// Package filters evaluates pool candidates against configurable safety
// checks before the engine commits funds.
package filters

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"solana-sniper/internal/domain"
)

// Verdict is one filter's opinion of a pool.
type Verdict struct {
	Passed bool
	Reason string
}

// Filter checks one property of a candidate pool. A returned error means the
// filter could not evaluate; the pipeline treats that as a failing verdict.
type Filter interface {
	Name() string
	Check(ctx context.Context, keys *domain.PoolKeys) (Verdict, error)
}

// NamedVerdict pairs a verdict with the filter that produced it.
type NamedVerdict struct {
	Filter  string
	Verdict Verdict
}

// Result aggregates one verdict per registered filter.
type Result struct {
	Verdicts []NamedVerdict
}

// Passed reports whether every filter passed.
func (r Result) Passed() bool {
	for _, v := range r.Verdicts {
		if !v.Verdict.Passed {
			return false
		}
	}
	return true
}

// FailReasons returns the reasons of all failing verdicts.
func (r Result) FailReasons() []string {
	var reasons []string
	for _, v := range r.Verdicts {
		if !v.Verdict.Passed {
			reasons = append(reasons, v.Filter+": "+v.Verdict.Reason)
		}
	}
	return reasons
}

// Pipeline runs all registered filters concurrently and never
// short-circuits: every filter reports a verdict on every evaluation.
type Pipeline struct {
	filters []Filter
	log     *zap.Logger
}

// NewPipeline creates a pipeline over the given filters.
func NewPipeline(log *zap.Logger, filters ...Filter) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{filters: filters, log: log.Named("filters")}
}

// Empty reports whether no filters are registered. An empty pipeline accepts
// every pool.
func (p *Pipeline) Empty() bool { return len(p.filters) == 0 }

// Evaluate runs all filters concurrently and waits for every verdict.
func (p *Pipeline) Evaluate(ctx context.Context, keys *domain.PoolKeys) Result {
	verdicts := make([]NamedVerdict, len(p.filters))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range p.filters {
		g.Go(func() error {
			v, err := f.Check(gctx, keys)
			if err != nil {
				v = Verdict{Passed: false, Reason: err.Error()}
			}
			verdicts[i] = NamedVerdict{Filter: f.Name(), Verdict: v}
			return nil
		})
	}
	g.Wait()

	result := Result{Verdicts: verdicts}
	for _, reason := range result.FailReasons() {
		p.log.Debug("filter rejected pool",
			zap.String("mint", keys.BaseMint), zap.String("reason", reason))
	}
	return result
}

// MatchConsecutive re-evaluates the pipeline on a fixed cadence until the
// pool passes `required` evaluations in a row, the duration elapses, or the
// context is cancelled. A failing evaluation resets the streak.
func (p *Pipeline) MatchConsecutive(ctx context.Context, keys *domain.PoolKeys, interval, duration time.Duration, required int) bool {
	return p.MatchConsecutiveFunc(ctx, keys, interval, duration, required, nil)
}

// MatchConsecutiveFunc behaves like MatchConsecutive and additionally reports
// every evaluation result to onResult when non-nil.
func (p *Pipeline) MatchConsecutiveFunc(ctx context.Context, keys *domain.PoolKeys, interval, duration time.Duration, required int, onResult func(Result)) bool {
	if p.Empty() || required <= 0 {
		return true
	}

	deadline := time.NewTimer(duration)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	streak := 0
	for {
		result := p.Evaluate(ctx, keys)
		if onResult != nil {
			onResult(result)
		}
		if result.Passed() {
			streak++
			if streak >= required {
				return true
			}
		} else {
			streak = 0
		}

		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-ticker.C:
		}
	}
}
