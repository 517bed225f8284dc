package filters

import (
	"context"
	"fmt"
	"strings"

	"solana-sniper/internal/codec"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// RenouncedFilter inspects the base mint account. With CheckRenounced set it
// requires the mint authority to be revoked; with CheckFreezable set it
// requires no freeze authority. Both checks toggle independently.
type RenouncedFilter struct {
	rpc            solana.RPCClient
	checkRenounced bool
	checkFreezable bool
}

var _ Filter = (*RenouncedFilter)(nil)

func NewRenouncedFilter(rpc solana.RPCClient, checkRenounced, checkFreezable bool) *RenouncedFilter {
	return &RenouncedFilter{rpc: rpc, checkRenounced: checkRenounced, checkFreezable: checkFreezable}
}

func (f *RenouncedFilter) Name() string { return "renounced" }

func (f *RenouncedFilter) Check(ctx context.Context, keys *domain.PoolKeys) (Verdict, error) {
	info, err := f.rpc.GetAccountInfo(ctx, keys.BaseMint)
	if err != nil {
		return Verdict{}, fmt.Errorf("fetch mint: %w", err)
	}
	if info == nil {
		return Verdict{}, fmt.Errorf("mint %s not found", keys.BaseMint)
	}

	mint, err := codec.DecodeMint(info.Data)
	if err != nil {
		return Verdict{}, err
	}

	var problems []string
	if f.checkRenounced && !mint.MintRenounced() {
		problems = append(problems, "creator can mint more tokens")
	}
	if f.checkFreezable && mint.Freezable() {
		problems = append(problems, "token can be frozen")
	}

	if len(problems) > 0 {
		return Verdict{Passed: false, Reason: strings.Join(problems, "; ")}, nil
	}
	return Verdict{Passed: true}, nil
}
