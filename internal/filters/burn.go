package filters

import (
	"context"
	"fmt"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// BurnFilter passes only when the pool's LP token supply is exactly zero,
// meaning the creator burned the liquidity.
type BurnFilter struct {
	rpc solana.RPCClient
}

var _ Filter = (*BurnFilter)(nil)

func NewBurnFilter(rpc solana.RPCClient) *BurnFilter {
	return &BurnFilter{rpc: rpc}
}

func (f *BurnFilter) Name() string { return "burned" }

func (f *BurnFilter) Check(ctx context.Context, keys *domain.PoolKeys) (Verdict, error) {
	supply, err := f.rpc.GetTokenSupply(ctx, keys.LPMint)
	if err != nil {
		return Verdict{}, fmt.Errorf("fetch LP supply: %w", err)
	}

	if supply.Amount != "0" {
		return Verdict{Passed: false, Reason: "creator didn't burn LP"}, nil
	}
	return Verdict{Passed: true}, nil
}
