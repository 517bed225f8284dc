// Package analytics archives filter evaluations and position price ticks to
// ClickHouse for offline analysis. The sink is optional; the engine runs
// against the no-op sink when no DSN is configured.
package analytics

import (
	"context"
	"time"
)

// FilterEvaluation is one pipeline evaluation of one pool.
type FilterEvaluation struct {
	Mint      string
	PoolID    string
	Filter    string
	Passed    bool
	Reason    string
	Timestamp time.Time
}

// PriceTick is one monitor price observation of a held position.
type PriceTick struct {
	Mint      string
	Price     float64
	Liquidity float64
	Timestamp time.Time
}

// Sink receives analytics events. Implementations must tolerate bursts;
// writes happen on the hot path of the engine.
type Sink interface {
	RecordEvaluations(ctx context.Context, evals []FilterEvaluation) error
	RecordPriceTick(ctx context.Context, tick PriceTick) error
	Close() error
}

// NopSink discards all events.
type NopSink struct{}

var _ Sink = NopSink{}

func (NopSink) RecordEvaluations(context.Context, []FilterEvaluation) error { return nil }
func (NopSink) RecordPriceTick(context.Context, PriceTick) error            { return nil }
func (NopSink) Close() error                                                { return nil }
