// Package engine drives the position lifecycle: candidate intake, filter
// gating, entry, price monitoring and exit. The engine owns the live position
// map; the reservation there is the mutual-exclusion point guaranteeing at
// most one live position per mint.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"solana-sniper/internal/analytics"
	"solana-sniper/internal/cache"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/executor"
	"solana-sniper/internal/filters"
	"solana-sniper/internal/listeners"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/solana"
	"solana-sniper/internal/tradelog"
)

// Config holds the trading parameters.
type Config struct {
	QuoteMint   string
	QuoteAmount float64 // quote spent per entry, display units

	AutoBuyDelay  time.Duration
	MaxBuyRetries int

	AutoSell       bool
	AutoSellDelay  time.Duration
	MaxSellRetries int

	TakeProfit float64 // percent gain that triggers an exit
	StopLoss   float64 // percent loss that triggers an exit

	// BuySlippage and SellSlippage bound how far below the expected output
	// a swap may fill, in percent. The bound rides the swap instruction, so
	// the on-chain program rejects worse fills.
	BuySlippage  float64
	SellSlippage float64

	PriceCheckInterval time.Duration
	PriceCheckDuration time.Duration
	LiquidityFloor     float64 // quote display units; below this the pool is considered rugged

	OneTokenAtATime bool
	UseSnipeList    bool

	FilterCheckInterval time.Duration
	FilterCheckDuration time.Duration
	ConsecutiveMatches  int

	ComputeUnitLimit uint32
	ComputeUnitPrice uint64

	// Fee is the per-trade service fee in quote display units, charged by
	// the warp and jito executors. Zero for plain RPC submission.
	Fee float64
}

// Deps are the collaborators the engine is wired with at startup.
type Deps struct {
	RPC       solana.RPCClient
	Executor  executor.Executor
	Wallet    *solana.Wallet
	Pipeline  *filters.Pipeline
	Pools     *cache.PoolCache
	Markets   *cache.MarketCache
	SnipeList *cache.SnipeList // required when Config.UseSnipeList
	Trades    tradelog.Store
	Analytics analytics.Sink
	Metrics   *observability.Metrics
	Log       *zap.Logger
}

// Engine is the position lifecycle state machine.
type Engine struct {
	cfg      Config
	rpc      solana.RPCClient
	exec     executor.Executor
	wallet   *solana.Wallet
	pipeline *filters.Pipeline
	pools    *cache.PoolCache
	markets  *cache.MarketCache
	snipe    *cache.SnipeList
	trades   tradelog.Store
	sink     analytics.Sink
	metrics  *observability.Metrics
	log      *zap.Logger

	start time.Time

	mu        sync.Mutex
	positions map[string]*domain.Position
	cancels   map[string]context.CancelFunc
	armed     map[string]bool // auto-sell timer started

	wg sync.WaitGroup
}

// New creates an engine. Pools opened before this call are rejected as stale.
func New(cfg Config, deps Deps) *Engine {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	sink := deps.Analytics
	if sink == nil {
		sink = analytics.NopSink{}
	}
	return &Engine{
		cfg:       cfg,
		rpc:       deps.RPC,
		exec:      deps.Executor,
		wallet:    deps.Wallet,
		pipeline:  deps.Pipeline,
		pools:     deps.Pools,
		markets:   deps.Markets,
		snipe:     deps.SnipeList,
		trades:    deps.Trades,
		sink:      sink,
		metrics:   deps.Metrics,
		log:       log.Named("engine"),
		start:     time.Now(),
		positions: make(map[string]*domain.Position),
		cancels:   make(map[string]context.CancelFunc),
		armed:     make(map[string]bool),
	}
}

// Run consumes listener events until ctx is cancelled or the pool stream
// closes, then waits for in-flight positions to settle.
func (e *Engine) Run(ctx context.Context, l *listeners.Listeners) {
	e.log.Info("engine started",
		zap.String("executor", e.exec.Name()),
		zap.String("quote_mint", e.cfg.QuoteMint),
		zap.Float64("quote_amount", e.cfg.QuoteAmount))

	pools, markets, wallets := l.Pools(), l.Markets(), l.Wallets()
	for {
		select {
		case <-ctx.Done():
			e.wg.Wait()
			return
		case c, ok := <-pools:
			if !ok {
				e.wg.Wait()
				return
			}
			e.handlePool(ctx, &c)
		case ev, ok := <-markets:
			if !ok {
				markets = nil
				continue
			}
			e.handleMarket(ev)
		case ev, ok := <-wallets:
			if !ok {
				wallets = nil
				continue
			}
			e.handleWallet(ctx, ev)
		}
	}
}

// Live returns the number of live positions.
func (e *Engine) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.positions)
}

func (e *Engine) handlePool(ctx context.Context, c *domain.PoolCandidate) {
	if e.metrics != nil {
		e.metrics.PoolsDetected.Inc()
	}

	if c.OpenTime < e.start.Unix() {
		if e.metrics != nil {
			e.metrics.PoolsStale.Inc()
		}
		e.log.Debug("ignoring pool opened before start",
			zap.String("pool", c.PoolID), zap.Int64("open_time", c.OpenTime))
		return
	}

	if !e.pools.Save(c) {
		e.log.Debug("duplicate pool for mint", zap.String("mint", c.BaseMint))
		return
	}

	if e.cfg.UseSnipeList && !e.snipe.Contains(c.BaseMint) {
		e.log.Debug("mint not on snipe list", zap.String("mint", c.BaseMint))
		return
	}

	pos, ok := e.reserve(c.BaseMint)
	if !ok {
		return
	}

	e.log.Info("new pool candidate",
		zap.String("pool", c.PoolID), zap.String("mint", c.BaseMint))

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.evaluateAndEnter(ctx, pos, c)
	}()
}

func (e *Engine) handleMarket(ev listeners.MarketEvent) {
	e.markets.Save(ev.Market)
	if e.metrics != nil {
		e.metrics.MarketsCached.Inc()
	}
}

// handleWallet records the realized token balance for the owning position and
// arms the auto-sell timer once.
func (e *Engine) handleWallet(ctx context.Context, ev listeners.WalletEvent) {
	e.mu.Lock()
	pos := e.positions[ev.Mint]
	if pos == nil || pos.State != domain.StateHeld || ev.Address != pos.TokenAccount {
		e.mu.Unlock()
		return
	}
	if pos.PoolKeys != nil {
		pos.EntryAmountOut = displayAmount(ev.Amount, pos.PoolKeys.BaseDecimals)
	}
	arm := e.cfg.AutoSell && !e.armed[ev.Mint]
	if arm {
		e.armed[ev.Mint] = true
	}
	e.mu.Unlock()

	if !arm {
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if e.cfg.AutoSellDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(e.cfg.AutoSellDelay):
			}
		}
		e.exit(ctx, pos, domain.ExitAutoSell)
	}()
}

// evaluateAndEnter derives the pool keys, runs the filter gate and enters the
// position. Runs on its own goroutine, one per reserved mint.
func (e *Engine) evaluateAndEnter(ctx context.Context, pos *domain.Position, c *domain.PoolCandidate) {
	keys, err := e.poolKeys(ctx, c)
	if err != nil {
		e.log.Warn("cannot assemble pool keys",
			zap.String("pool", c.PoolID), zap.Error(err))
		e.remove(pos.Mint)
		return
	}
	pos.PoolKeys = keys

	owner := e.wallet.PublicKey()
	if pos.QuoteAccount, err = solana.AssociatedTokenAddress(owner, e.cfg.QuoteMint); err == nil {
		pos.TokenAccount, err = solana.AssociatedTokenAddress(owner, c.BaseMint)
	}
	if err != nil {
		e.log.Warn("cannot derive token accounts", zap.String("mint", c.BaseMint), zap.Error(err))
		e.remove(pos.Mint)
		return
	}

	// Snipe-listed mints bypass the filters.
	if !e.cfg.UseSnipeList && !e.pipeline.Empty() {
		gateStart := time.Now()
		matched := e.pipeline.MatchConsecutiveFunc(ctx, keys,
			e.cfg.FilterCheckInterval, e.cfg.FilterCheckDuration, e.cfg.ConsecutiveMatches,
			func(r filters.Result) { e.recordEvaluations(ctx, c, r) })
		if e.metrics != nil {
			e.metrics.PipelineDuration.Observe(time.Since(gateStart).Seconds())
		}
		if !matched {
			e.log.Info("pool rejected by filters", zap.String("mint", c.BaseMint))
			e.remove(pos.Mint)
			return
		}
	}

	e.enter(ctx, pos)
}

func (e *Engine) poolKeys(ctx context.Context, c *domain.PoolCandidate) (*domain.PoolKeys, error) {
	market, err := e.markets.Get(ctx, c.State.MarketID)
	if err != nil {
		return nil, err
	}
	signer, err := solana.MarketVaultSigner(market.MarketID, market.VaultSignerNonce, c.State.MarketProgramID)
	if err != nil {
		return nil, fmt.Errorf("derive vault signer: %w", err)
	}
	return domain.NewPoolKeys(c.PoolID, c.State, market, signer), nil
}

func (e *Engine) recordEvaluations(ctx context.Context, c *domain.PoolCandidate, result filters.Result) {
	now := time.Now()
	evals := make([]analytics.FilterEvaluation, 0, len(result.Verdicts))
	for _, v := range result.Verdicts {
		evals = append(evals, analytics.FilterEvaluation{
			Mint:      c.BaseMint,
			PoolID:    c.PoolID,
			Filter:    v.Filter,
			Passed:    v.Verdict.Passed,
			Reason:    v.Verdict.Reason,
			Timestamp: now,
		})
		if e.metrics != nil {
			e.metrics.FilterVerdicts.WithLabelValues(v.Filter, resultLabel(v.Verdict.Passed)).Inc()
		}
	}
	if e.metrics != nil {
		e.metrics.PipelineRuns.WithLabelValues(resultLabel(result.Passed())).Inc()
	}
	if err := e.sink.RecordEvaluations(ctx, evals); err != nil {
		e.log.Warn("analytics write failed", zap.Error(err))
	}
}

// reserve claims the mint in the position map. Returns false when a live
// position already exists for the mint, or any position exists while
// one-token-at-a-time is on.
func (e *Engine) reserve(mint string) (*domain.Position, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, live := e.positions[mint]; live {
		return nil, false
	}
	if e.cfg.OneTokenAtATime && len(e.positions) > 0 {
		return nil, false
	}

	pos := &domain.Position{
		Mint:      mint,
		State:     domain.StateCandidate,
		CreatedAt: time.Now(),
	}
	e.positions[mint] = pos
	if e.metrics != nil {
		e.metrics.LivePositions.Set(float64(len(e.positions)))
	}
	return pos, true
}

func (e *Engine) remove(mint string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cancel := e.cancels[mint]; cancel != nil {
		cancel()
		delete(e.cancels, mint)
	}
	delete(e.positions, mint)
	delete(e.armed, mint)
	if e.metrics != nil {
		e.metrics.LivePositions.Set(float64(len(e.positions)))
	}
}

// transition is the state CAS; every lifecycle edge goes through it.
func (e *Engine) transition(pos *domain.Position, from, to domain.PositionState) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if pos.State != from {
		return false
	}
	pos.State = to
	return true
}

func (e *Engine) cancelMonitor(mint string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cancel := e.cancels[mint]; cancel != nil {
		cancel()
		delete(e.cancels, mint)
	}
}

func (e *Engine) logTrade(record *domain.TradeRecord) {
	if err := e.trades.Insert(context.Background(), record); err != nil {
		e.log.Error("trade log write failed",
			zap.String("trade_id", record.TradeID), zap.Error(err))
		return
	}
	e.log.Info("trade recorded",
		zap.String("mint", record.Mint),
		zap.String("status", record.Status),
		zap.Float64("profit", record.Profit),
		zap.Float64("profit_pct", record.ProfitPct))
}

func resultLabel(passed bool) string {
	if passed {
		return "pass"
	}
	return "fail"
}
