package filters

import (
	"context"
	"fmt"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// PoolSizeFilter checks that the pool's quote vault balance, in display
// units, lies within [Min, Max]. A zero bound disables that side; both
// bounds are inclusive.
type PoolSizeFilter struct {
	rpc solana.RPCClient
	min float64
	max float64
}

var _ Filter = (*PoolSizeFilter)(nil)

func NewPoolSizeFilter(rpc solana.RPCClient, min, max float64) *PoolSizeFilter {
	return &PoolSizeFilter{rpc: rpc, min: min, max: max}
}

func (f *PoolSizeFilter) Name() string { return "pool-size" }

func (f *PoolSizeFilter) Check(ctx context.Context, keys *domain.PoolKeys) (Verdict, error) {
	balance, err := f.rpc.GetTokenAccountBalance(ctx, keys.QuoteVault)
	if err != nil {
		return Verdict{}, fmt.Errorf("fetch quote vault balance: %w", err)
	}
	if balance == nil {
		return Verdict{}, fmt.Errorf("quote vault %s not found", keys.QuoteVault)
	}

	size := balance.UIAmount
	if f.max > 0 && size > f.max {
		return Verdict{Passed: false, Reason: fmt.Sprintf("pool size %g > %g", size, f.max)}, nil
	}
	if f.min > 0 && size < f.min {
		return Verdict{Passed: false, Reason: fmt.Sprintf("pool size %g < %g", size, f.min)}, nil
	}
	return Verdict{Passed: true}, nil
}
