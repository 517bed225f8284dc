package engine

import (
	"context"
	"crypto/ed25519"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"solana-sniper/internal/cache"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/filters"
	"solana-sniper/internal/solana"
	"solana-sniper/internal/solana/stub"
	"solana-sniper/internal/tradelog"
)

// fakeExecutor replays a scripted sequence of outcomes; the last one repeats.
type fakeExecutor struct {
	mu       sync.Mutex
	outcomes []domain.ExecutionOutcome
	calls    int
}

func (f *fakeExecutor) Name() string { return "fake" }

func (f *fakeExecutor) ExecuteAndConfirm(_ context.Context, _ *solana.Transaction, _ *solana.Wallet, _ *solana.Blockhash) domain.ExecutionOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.outcomes) == 0 {
		return domain.FailedOutcome("no outcome scripted")
	}
	outcome := f.outcomes[0]
	if len(f.outcomes) > 1 {
		f.outcomes = f.outcomes[1:]
	}
	return outcome
}

func (f *fakeExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func pk(b byte) string {
	buf := make([]byte, 32)
	for i := range buf {
		buf[i] = b
	}
	return base58.Encode(buf)
}

func testWallet(t *testing.T) *solana.Wallet {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = 7
	}
	w, err := solana.NewWalletFromBase58(base58.Encode(ed25519.NewKeyFromSeed(seed)))
	require.NoError(t, err)
	return w
}

// vaultNonce finds a nonce for which the vault signer derivation succeeds.
func vaultNonce(t *testing.T, marketID, programID string) uint64 {
	t.Helper()
	for nonce := uint64(0); nonce < 255; nonce++ {
		if _, err := solana.MarketVaultSigner(marketID, nonce, programID); err == nil {
			return nonce
		}
	}
	t.Fatal("no valid vault signer nonce found")
	return 0
}

func newCandidate(openTime int64) *domain.PoolCandidate {
	state := &domain.LiquidityState{
		Status:          6,
		BaseDecimals:    9,
		QuoteDecimals:   6,
		PoolOpenTime:    uint64(openTime),
		BaseVault:       pk(11),
		QuoteVault:      pk(12),
		BaseMint:        pk(1),
		QuoteMint:       pk(2),
		LPMint:          pk(13),
		OpenOrders:      pk(14),
		MarketID:        pk(4),
		MarketProgramID: solana.OpenBookProgramID,
		TargetOrders:    pk(15),
		WithdrawQueue:   pk(16),
		LPVault:         pk(17),
	}
	return &domain.PoolCandidate{
		PoolID:     pk(10),
		BaseMint:   state.BaseMint,
		QuoteMint:  state.QuoteMint,
		QuoteVault: state.QuoteVault,
		OpenTime:   openTime,
		State:      state,
	}
}

type harness struct {
	engine *Engine
	rpc    *stub.RPCClient
	exec   *fakeExecutor
	trades *tradelog.MemoryStore
}

func baseConfig() Config {
	return Config{
		QuoteMint:           pk(2),
		QuoteAmount:         1,
		MaxBuyRetries:       3,
		MaxSellRetries:      3,
		BuySlippage:         20,
		SellSlippage:        20,
		TakeProfit:          50,
		StopLoss:            30,
		PriceCheckInterval:  10 * time.Millisecond,
		PriceCheckDuration:  5 * time.Second,
		LiquidityFloor:      1,
		FilterCheckInterval: 10 * time.Millisecond,
		FilterCheckDuration: 200 * time.Millisecond,
		ConsecutiveMatches:  1,
		ComputeUnitLimit:    101337,
		ComputeUnitPrice:    421197,
	}
}

func newHarness(t *testing.T, cfg Config, pipeline *filters.Pipeline, outcomes ...domain.ExecutionOutcome) *harness {
	t.Helper()

	rpc := stub.NewRPCClient()
	exec := &fakeExecutor{outcomes: outcomes}
	trades := tradelog.NewMemoryStore()

	markets := cache.NewMarketCache(rpc, nil)
	markets.Save(&domain.MarketRef{
		MarketID:         pk(4),
		Bids:             pk(5),
		Asks:             pk(6),
		EventQueue:       pk(7),
		BaseVault:        pk(8),
		QuoteVault:       pk(9),
		VaultSignerNonce: vaultNonce(t, pk(4), solana.OpenBookProgramID),
	})

	// Healthy pool at entry: price 1.0, plenty of quote liquidity.
	rpc.SetTokenBalance(pk(12), &solana.TokenAmount{Amount: "100000000", Decimals: 6, UIAmount: 100})
	rpc.SetTokenBalance(pk(11), &solana.TokenAmount{Amount: "100000000000", Decimals: 9, UIAmount: 100})

	if pipeline == nil {
		pipeline = filters.NewPipeline(nil)
	}

	e := New(cfg, Deps{
		RPC:      rpc,
		Executor: exec,
		Wallet:   testWallet(t),
		Pipeline: pipeline,
		Pools:    cache.NewPoolCache(),
		Markets:  markets,
		Trades:   trades,
	})

	return &harness{engine: e, rpc: rpc, exec: exec, trades: trades}
}

func (h *harness) waitForTrade(t *testing.T) *domain.TradeRecord {
	t.Helper()
	var trade *domain.TradeRecord
	require.Eventually(t, func() bool {
		all, err := h.trades.GetAll(context.Background())
		if err != nil || len(all) == 0 {
			return false
		}
		trade = all[0]
		return h.engine.Live() == 0
	}, 5*time.Second, 10*time.Millisecond, "no trade recorded and position released")
	return trade
}

func (h *harness) position(mint string) *domain.Position {
	h.engine.mu.Lock()
	defer h.engine.mu.Unlock()
	return h.engine.positions[mint]
}

func (h *harness) waitForHeld(t *testing.T, mint string) *domain.Position {
	t.Helper()
	var pos *domain.Position
	require.Eventually(t, func() bool {
		pos = h.position(mint)
		if pos == nil {
			return false
		}
		h.engine.mu.Lock()
		defer h.engine.mu.Unlock()
		return pos.State == domain.StateHeld
	}, 5*time.Second, 10*time.Millisecond, "position never reached held")
	return pos
}

func futureOpen() int64 { return time.Now().Add(time.Minute).Unix() }

func TestEngine_StalePoolIgnored(t *testing.T) {
	h := newHarness(t, baseConfig(), nil)

	h.engine.handlePool(context.Background(), newCandidate(time.Now().Add(-time.Hour).Unix()))

	require.Equal(t, 0, h.engine.Live())
	require.Equal(t, 0, h.exec.callCount())
}

func TestEngine_AtMostOnePositionPerMint(t *testing.T) {
	h := newHarness(t, baseConfig(), nil)

	_, ok := h.engine.reserve(pk(1))
	require.True(t, ok)
	_, ok = h.engine.reserve(pk(1))
	require.False(t, ok, "second reservation for the same mint must fail")
	_, ok = h.engine.reserve(pk(3))
	require.True(t, ok, "other mints are unaffected")
}

func TestEngine_OneTokenAtATime(t *testing.T) {
	cfg := baseConfig()
	cfg.OneTokenAtATime = true
	h := newHarness(t, cfg, nil)

	_, ok := h.engine.reserve(pk(1))
	require.True(t, ok)
	_, ok = h.engine.reserve(pk(3))
	require.False(t, ok, "any live position blocks new reservations")
}

func TestEngine_BuyRetriesBounded(t *testing.T) {
	h := newHarness(t, baseConfig(), nil, domain.FailedOutcome("node rejected"))

	h.engine.handlePool(context.Background(), newCandidate(futureOpen()))

	trade := h.waitForTrade(t)
	require.Equal(t, domain.TradeStatusEntryFailed, trade.Status)
	require.Equal(t, 3, h.exec.callCount(), "exactly MaxBuyRetries submissions")
}

func TestEngine_TakeProfitExit(t *testing.T) {
	h := newHarness(t, baseConfig(), nil,
		domain.ConfirmedOutcome("sig-entry"),
		domain.ConfirmedOutcome("sig-exit"))

	h.engine.handlePool(context.Background(), newCandidate(futureOpen()))
	pos := h.waitForHeld(t, pk(1))

	// Leave something to sell, then push the price +60%.
	h.rpc.SetTokenBalance(pos.TokenAccount, &solana.TokenAmount{Amount: "1000000000", Decimals: 9, UIAmount: 1})
	h.rpc.SetTokenBalance(pk(12), &solana.TokenAmount{Amount: "160000000", Decimals: 6, UIAmount: 160})

	trade := h.waitForTrade(t)
	require.Equal(t, domain.TradeStatusClosed, trade.Status)
	require.Equal(t, string(domain.ExitTakeProfit), trade.ExitReason)
	require.Equal(t, "sig-entry", trade.EntrySignature)
	require.Equal(t, "sig-exit", trade.ExitSignature)
	require.Equal(t, 2, h.exec.callCount())
}

func TestEngine_StopLossExit(t *testing.T) {
	h := newHarness(t, baseConfig(), nil,
		domain.ConfirmedOutcome("sig-entry"),
		domain.ConfirmedOutcome("sig-exit"))

	h.engine.handlePool(context.Background(), newCandidate(futureOpen()))
	pos := h.waitForHeld(t, pk(1))

	h.rpc.SetTokenBalance(pos.TokenAccount, &solana.TokenAmount{Amount: "1000000000", Decimals: 9, UIAmount: 1})
	h.rpc.SetTokenBalance(pk(12), &solana.TokenAmount{Amount: "60000000", Decimals: 6, UIAmount: 60})

	trade := h.waitForTrade(t)
	require.Equal(t, domain.TradeStatusClosed, trade.Status)
	require.Equal(t, string(domain.ExitStopLoss), trade.ExitReason)
}

func TestEngine_RuggedPoolAbandonedWithoutSell(t *testing.T) {
	h := newHarness(t, baseConfig(), nil, domain.ConfirmedOutcome("sig-entry"))

	h.engine.handlePool(context.Background(), newCandidate(futureOpen()))
	h.waitForHeld(t, pk(1))

	// Quote liquidity drops below the floor.
	h.rpc.SetTokenBalance(pk(12), &solana.TokenAmount{Amount: "100000", Decimals: 6, UIAmount: 0.1})

	trade := h.waitForTrade(t)
	require.Equal(t, domain.TradeStatusRugged, trade.Status)
	require.Equal(t, string(domain.ExitLiquidityGone), trade.ExitReason)
	require.Equal(t, -100.0, trade.ProfitPct)
	require.Equal(t, 1, h.exec.callCount(), "no sell is submitted into a drained pool")
}

func TestEngine_NoopSellOnZeroBalance(t *testing.T) {
	cfg := baseConfig()
	cfg.PriceCheckDuration = 50 * time.Millisecond // force a duration exit
	h := newHarness(t, cfg, nil, domain.ConfirmedOutcome("sig-entry"))

	h.engine.handlePool(context.Background(), newCandidate(futureOpen()))
	h.waitForHeld(t, pk(1))

	// Token account balance stays absent: nothing to sell.
	trade := h.waitForTrade(t)
	require.Equal(t, domain.TradeStatusNoBalance, trade.Status)
	require.Equal(t, string(domain.ExitDurationElapsed), trade.ExitReason)
	require.Equal(t, 1, h.exec.callCount(), "no-op sell consumes no submissions")
}

func TestEngine_SellRetriesBounded(t *testing.T) {
	cfg := baseConfig()
	cfg.PriceCheckDuration = 50 * time.Millisecond
	h := newHarness(t, cfg, nil,
		domain.ConfirmedOutcome("sig-entry"),
		domain.FailedOutcome("node rejected"))

	h.engine.handlePool(context.Background(), newCandidate(futureOpen()))
	pos := h.waitForHeld(t, pk(1))
	h.rpc.SetTokenBalance(pos.TokenAccount, &solana.TokenAmount{Amount: "1000000000", Decimals: 9, UIAmount: 1})

	trade := h.waitForTrade(t)
	require.Equal(t, domain.TradeStatusSellFailed, trade.Status)
	require.Equal(t, -trade.AmountIn, trade.Profit, "failed exit is a total loss")
	require.Equal(t, -100.0, trade.ProfitPct)
	require.Equal(t, 4, h.exec.callCount(), "one buy plus MaxSellRetries sells")
}

func TestEngine_SwapMinOutBounds(t *testing.T) {
	h := newHarness(t, baseConfig(), nil)

	keys, err := h.engine.poolKeys(context.Background(), newCandidate(futureOpen()))
	require.NoError(t, err)
	pos := &domain.Position{Mint: pk(1), PoolKeys: keys}

	// Pool price is 1.0: one quote unit buys one base unit, bounded by the
	// 20% buy slippage.
	minOut := h.engine.entryMinOut(context.Background(), pos)
	require.Equal(t, uint64(800_000_000), minOut, "base has 9 decimals")
	require.Equal(t, 1.0, pos.EntryAmountOutEstimate)

	// Selling two base units must return at least 1.6 quote units.
	require.Equal(t, uint64(1_600_000), h.engine.exitMinOut(context.Background(), pos, 2_000_000_000))

	// No price means no bound.
	h.rpc.SetTokenBalance(pk(11), &solana.TokenAmount{Amount: "0", Decimals: 9, UIAmount: 0})
	require.Equal(t, uint64(0), h.engine.entryMinOut(context.Background(), pos))
	require.Equal(t, uint64(0), h.engine.exitMinOut(context.Background(), pos, 2_000_000_000))
}

func TestSlippageMinOut(t *testing.T) {
	require.Equal(t, uint64(1_000_000_000), slippageMinOut(1, 0, 9), "zero slippage keeps the full estimate")
	require.Equal(t, uint64(950_000), slippageMinOut(1, 5, 6))
	require.Equal(t, uint64(0), slippageMinOut(1, 100, 9), "full slippage disables the bound")
	require.Equal(t, uint64(0), slippageMinOut(0, 20, 9))
}

func TestEngine_SellSurvivesBalanceReadFailures(t *testing.T) {
	cfg := baseConfig()
	cfg.PriceCheckDuration = 50 * time.Millisecond // force a duration exit
	h := newHarness(t, cfg, nil,
		domain.ConfirmedOutcome("sig-entry"),
		domain.ConfirmedOutcome("sig-exit"))

	tokenAccount, err := solana.AssociatedTokenAddress(testWallet(t).PublicKey(), pk(1))
	require.NoError(t, err)

	// The post-buy read and the first three sell-side reads fail; only then
	// does the balance become visible.
	var mu sync.Mutex
	reads := 0
	h.rpc.GetTokenAccountBalanceFn = func(_ context.Context, account string) (*solana.TokenAmount, error) {
		if account != tokenAccount {
			return h.rpc.TokenBalances[account], nil
		}
		mu.Lock()
		defer mu.Unlock()
		reads++
		if reads <= 4 {
			return nil, errors.New("node overloaded")
		}
		return &solana.TokenAmount{Amount: "1000000000", Decimals: 9, UIAmount: 1}, nil
	}

	h.engine.handlePool(context.Background(), newCandidate(futureOpen()))

	trade := h.waitForTrade(t)
	require.Equal(t, domain.TradeStatusClosed, trade.Status)
	require.Equal(t, string(domain.ExitDurationElapsed), trade.ExitReason)
	require.Equal(t, 2, h.exec.callCount(), "read failures must not consume sell submissions")
}

func TestEngine_SellAbortsWhenBalanceUnreadable(t *testing.T) {
	cfg := baseConfig()
	cfg.PriceCheckDuration = 50 * time.Millisecond
	h := newHarness(t, cfg, nil, domain.ConfirmedOutcome("sig-entry"))

	tokenAccount, err := solana.AssociatedTokenAddress(testWallet(t).PublicKey(), pk(1))
	require.NoError(t, err)

	h.rpc.GetTokenAccountBalanceFn = func(_ context.Context, account string) (*solana.TokenAmount, error) {
		if account != tokenAccount {
			return h.rpc.TokenBalances[account], nil
		}
		return nil, errors.New("node overloaded")
	}

	h.engine.handlePool(context.Background(), newCandidate(futureOpen()))

	trade := h.waitForTrade(t)
	require.Equal(t, domain.TradeStatusSellFailed, trade.Status)
	require.Equal(t, -100.0, trade.ProfitPct)
	require.Equal(t, 1, h.exec.callCount(), "no sell submission without a readable balance")
}

type rejectFilter struct{}

func (rejectFilter) Name() string { return "reject" }
func (rejectFilter) Check(context.Context, *domain.PoolKeys) (filters.Verdict, error) {
	return filters.Verdict{Passed: false, Reason: "always"}, nil
}

func TestEngine_FilterGateRejects(t *testing.T) {
	h := newHarness(t, baseConfig(), filters.NewPipeline(nil, rejectFilter{}))

	h.engine.handlePool(context.Background(), newCandidate(futureOpen()))

	require.Eventually(t, func() bool {
		return h.engine.Live() == 0
	}, 5*time.Second, 10*time.Millisecond, "rejected candidate must be released")
	require.Equal(t, 0, h.exec.callCount())
}

func TestEngine_SnipeListBypassesFilters(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snipe-list.txt")
	require.NoError(t, os.WriteFile(path, []byte(pk(1)+"\n"), 0o644))
	snipe, err := cache.NewSnipeList(path, time.Hour, nil)
	require.NoError(t, err)

	cfg := baseConfig()
	cfg.UseSnipeList = true
	h := newHarness(t, cfg, filters.NewPipeline(nil, rejectFilter{}), domain.FailedOutcome("node rejected"))
	h.engine.snipe = snipe

	h.engine.handlePool(context.Background(), newCandidate(futureOpen()))

	trade := h.waitForTrade(t)
	require.Equal(t, domain.TradeStatusEntryFailed, trade.Status)
	require.Equal(t, 3, h.exec.callCount(), "listed mint is bought despite failing filters")
}

func TestEngine_SnipeListSkipsUnlistedMint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snipe-list.txt")
	require.NoError(t, os.WriteFile(path, []byte("# empty\n"), 0o644))
	snipe, err := cache.NewSnipeList(path, time.Hour, nil)
	require.NoError(t, err)

	cfg := baseConfig()
	cfg.UseSnipeList = true
	h := newHarness(t, cfg, nil)
	h.engine.snipe = snipe

	h.engine.handlePool(context.Background(), newCandidate(futureOpen()))

	require.Equal(t, 0, h.engine.Live())
	require.Equal(t, 0, h.exec.callCount())
}
