package filters

import (
	"context"
	"fmt"

	"solana-sniper/internal/codec"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// HoldersConfig tunes the holder distribution checks. Zero values disable
// the corresponding check.
type HoldersConfig struct {
	// MinCount is the minimum number of token accounts holding the mint.
	MinCount int
	// TopHolderMaxPct rejects when the largest holder owns more than this
	// percentage of the tracked supply.
	TopHolderMaxPct float64
	// Top10MaxPct rejects when the ten largest holders collectively own
	// more than this percentage.
	Top10MaxPct float64
	// AbnormalCount rejects when this many of the largest holders carry an
	// identical balance, a bundler signature.
	AbnormalCount int
	// ExcludedOwners are account owners ignored by the concentration
	// checks, typically the pool's own vault authority.
	ExcludedOwners map[string]bool
}

// HoldersFilter checks how the base token supply is distributed across
// holders.
type HoldersFilter struct {
	rpc solana.RPCClient
	cfg HoldersConfig
}

var _ Filter = (*HoldersFilter)(nil)

func NewHoldersFilter(rpc solana.RPCClient, cfg HoldersConfig) *HoldersFilter {
	return &HoldersFilter{rpc: rpc, cfg: cfg}
}

func (f *HoldersFilter) Name() string { return "holders" }

func (f *HoldersFilter) Check(ctx context.Context, keys *domain.PoolKeys) (Verdict, error) {
	if f.cfg.MinCount > 0 {
		count, err := f.holderCount(ctx, keys.BaseMint)
		if err != nil {
			return Verdict{}, err
		}
		if count < f.cfg.MinCount {
			return Verdict{Passed: false, Reason: fmt.Sprintf("too few holders: %d < %d", count, f.cfg.MinCount)}, nil
		}
	}

	largest, err := f.rpc.GetTokenLargestAccounts(ctx, keys.BaseMint)
	if err != nil {
		return Verdict{}, fmt.Errorf("fetch largest accounts: %w", err)
	}
	if len(largest) == 0 {
		return Verdict{Passed: false, Reason: "no holders"}, nil
	}

	if f.cfg.AbnormalCount > 0 && hasAbnormalDistribution(largest, f.cfg.AbnormalCount) {
		return Verdict{Passed: false, Reason: "abnormal distribution: identical balances among top holders"}, nil
	}

	// Concentration is measured against the sum of the largest accounts,
	// with excluded owners (the pool vault) removed from the ranking but
	// kept in the denominator.
	var total float64
	for _, acc := range largest {
		total += acc.UIAmount
	}
	if total == 0 {
		return Verdict{Passed: true}, nil
	}

	ranked, err := f.withoutExcludedOwners(ctx, largest)
	if err != nil {
		return Verdict{}, err
	}

	if f.cfg.TopHolderMaxPct > 0 && len(ranked) > 0 {
		topPct := ranked[0].UIAmount / total * 100
		if topPct > f.cfg.TopHolderMaxPct {
			return Verdict{Passed: false, Reason: fmt.Sprintf("top holder owns %.2f%% > %.2f%%", topPct, f.cfg.TopHolderMaxPct)}, nil
		}
	}

	if f.cfg.Top10MaxPct > 0 {
		var top10 float64
		for i, acc := range ranked {
			if i >= 10 {
				break
			}
			top10 += acc.UIAmount / total * 100
		}
		if top10 > f.cfg.Top10MaxPct {
			return Verdict{Passed: false, Reason: fmt.Sprintf("top 10 holders own %.2f%% > %.2f%%", top10, f.cfg.Top10MaxPct)}, nil
		}
	}

	return Verdict{Passed: true}, nil
}

// holderCount counts token accounts for the mint without fetching their data.
func (f *HoldersFilter) holderCount(ctx context.Context, mint string) (int, error) {
	sliceLen := 0
	accounts, err := f.rpc.GetProgramAccounts(ctx, solana.TokenProgramID, &solana.ProgramAccountsOpts{
		DataSize:     codec.TokenAccountSize,
		Memcmp:       []solana.MemcmpFilter{{Offset: 0, Bytes: mint}},
		DataSliceLen: &sliceLen,
	})
	if err != nil {
		return 0, fmt.Errorf("count holders: %w", err)
	}
	return len(accounts), nil
}

// withoutExcludedOwners drops largest accounts whose owner is excluded,
// resolving owners in one getMultipleAccounts round trip.
func (f *HoldersFilter) withoutExcludedOwners(ctx context.Context, largest []solana.LargestAccount) ([]solana.LargestAccount, error) {
	if len(f.cfg.ExcludedOwners) == 0 {
		return largest, nil
	}

	addresses := make([]string, len(largest))
	for i, acc := range largest {
		addresses[i] = acc.Address
	}
	infos, err := f.rpc.GetMultipleAccounts(ctx, addresses)
	if err != nil {
		return nil, fmt.Errorf("resolve holder owners: %w", err)
	}

	ranked := make([]solana.LargestAccount, 0, len(largest))
	for i, acc := range largest {
		if infos[i] != nil {
			tokenAcc, err := codec.DecodeTokenAccount(infos[i].Data)
			if err == nil && f.cfg.ExcludedOwners[tokenAcc.Owner] {
				continue
			}
		}
		ranked = append(ranked, acc)
	}
	return ranked, nil
}

func hasAbnormalDistribution(largest []solana.LargestAccount, threshold int) bool {
	counts := make(map[float64]int, len(largest))
	for _, acc := range largest {
		if acc.UIAmount == 0 {
			continue
		}
		counts[acc.UIAmount]++
		if counts[acc.UIAmount] >= threshold {
			return true
		}
	}
	return false
}
