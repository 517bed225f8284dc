package engine

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// enter buys the position: bounded retries, fresh blockhash per attempt.
func (e *Engine) enter(ctx context.Context, pos *domain.Position) {
	if !e.transition(pos, domain.StateCandidate, domain.StateEntering) {
		return
	}

	if e.cfg.AutoBuyDelay > 0 {
		select {
		case <-ctx.Done():
			e.remove(pos.Mint)
			return
		case <-time.After(e.cfg.AutoBuyDelay):
		}
	}

	amountIn := rawAmount(e.cfg.QuoteAmount, pos.PoolKeys.QuoteDecimals)
	minOut := e.entryMinOut(ctx, pos)

	for attempt := 1; attempt <= e.cfg.MaxBuyRetries; attempt++ {
		outcome := e.submit(ctx, func(blockhash string) (*solana.Transaction, error) {
			return e.buildBuy(blockhash, pos, amountIn, minOut)
		})
		e.countAttempt(true, outcome.Confirmed)

		if outcome.Confirmed {
			e.completeEntry(ctx, pos, outcome.Signature)
			return
		}

		e.log.Warn("buy attempt failed",
			zap.String("mint", pos.Mint),
			zap.Int("attempt", attempt),
			zap.String("err", outcome.Err))
		if ctx.Err() != nil {
			break
		}
	}

	e.transition(pos, domain.StateEntering, domain.StateEntryFailed)
	e.logTrade(&domain.TradeRecord{
		TradeID:   uuid.NewString(),
		Mint:      pos.Mint,
		EnteredAt: pos.CreatedAt,
		ExitedAt:  time.Now(),
		Status:    domain.TradeStatusEntryFailed,
	})
	e.remove(pos.Mint)
}

// completeEntry records the realized entry from the post-buy balance and
// starts the price monitor.
func (e *Engine) completeEntry(ctx context.Context, pos *domain.Position, signature string) {
	pos.EntrySignature = signature
	pos.EntryAmountIn = e.cfg.QuoteAmount
	pos.EnteredAt = time.Now()

	// The realized amount comes from the chain, not the quoted estimate.
	if balance, err := e.rpc.GetTokenAccountBalance(ctx, pos.TokenAccount); err == nil && balance != nil {
		pos.EntryAmountOut = balance.UIAmount
	}
	if price, _, err := e.poolPrice(ctx, pos.PoolKeys); err == nil {
		pos.EntryPrice = price
	}

	if !e.transition(pos, domain.StateEntering, domain.StateHeld) {
		return
	}

	e.log.Info("position opened",
		zap.String("mint", pos.Mint),
		zap.String("signature", signature),
		zap.Float64("amount_in", pos.EntryAmountIn),
		zap.Float64("amount_out", pos.EntryAmountOut),
		zap.Float64("entry_price", pos.EntryPrice))

	mctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancels[pos.Mint] = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.monitor(mctx, ctx, pos)
	}()
}

// exit moves the position from Held to Exiting exactly once and sells it.
// Losing the CAS means another trigger got there first.
func (e *Engine) exit(ctx context.Context, pos *domain.Position, reason domain.ExitReason) {
	if !e.transition(pos, domain.StateHeld, domain.StateExiting) {
		return
	}
	e.cancelMonitor(pos.Mint)
	if e.metrics != nil {
		e.metrics.ExitReasons.WithLabelValues(string(reason)).Inc()
	}
	e.log.Info("exiting position",
		zap.String("mint", pos.Mint), zap.String("reason", string(reason)))
	e.sell(ctx, pos, reason)
}

// sell exits the position: bounded retries, fresh blockhash and live balance
// per attempt. A zero balance before the first success closes the position
// without submitting anything.
func (e *Engine) sell(ctx context.Context, pos *domain.Position, reason domain.ExitReason) {
	record := &domain.TradeRecord{
		TradeID:        uuid.NewString(),
		Mint:           pos.Mint,
		AmountIn:       pos.EntryAmountIn,
		Fee:            e.cfg.Fee,
		EntrySignature: pos.EntrySignature,
		EnteredAt:      pos.EnteredAt,
		ExitReason:     string(reason),
	}

	// Balance reads carry their own retry budget so a flaky RPC node does
	// not burn sell submissions.
	attempts, readFailures := 0, 0
	for attempts < e.cfg.MaxSellRetries {
		balance, err := e.rpc.GetTokenAccountBalance(ctx, pos.TokenAccount)
		if err != nil {
			e.log.Warn("balance check failed",
				zap.String("mint", pos.Mint), zap.Int("failures", readFailures+1), zap.Error(err))
			readFailures++
			if readFailures > e.cfg.MaxSellRetries || ctx.Err() != nil {
				e.log.Warn("abandoning sell, token balance unreadable",
					zap.String("mint", pos.Mint), zap.Int("submissions", attempts))
				break
			}
			continue
		}
		if balance == nil || balance.Amount == "0" {
			e.transition(pos, domain.StateExiting, domain.StateClosed)
			record.ExitedAt = time.Now()
			record.Status = domain.TradeStatusNoBalance
			record.ComputeProfit()
			e.log.Info("nothing to sell", zap.String("mint", pos.Mint))
			e.logTrade(record)
			e.remove(pos.Mint)
			return
		}

		amount, err := strconv.ParseUint(balance.Amount, 10, 64)
		if err != nil {
			e.log.Warn("unparseable balance",
				zap.String("mint", pos.Mint), zap.String("amount", balance.Amount))
			readFailures++
			if readFailures > e.cfg.MaxSellRetries {
				break
			}
			continue
		}
		readFailures = 0
		attempts++

		minOut := e.exitMinOut(ctx, pos, amount)
		preQuote := e.quoteBalance(ctx, pos.QuoteAccount)
		outcome := e.submit(ctx, func(blockhash string) (*solana.Transaction, error) {
			return e.buildSell(blockhash, pos, amount, minOut)
		})
		e.countAttempt(false, outcome.Confirmed)

		if outcome.Confirmed {
			pos.ExitSignature = outcome.Signature
			e.transition(pos, domain.StateExiting, domain.StateClosed)

			record.ExitSignature = outcome.Signature
			record.ExitedAt = time.Now()
			record.AmountOut = e.quoteBalance(ctx, pos.QuoteAccount) - preQuote
			record.Status = domain.TradeStatusClosed
			record.ComputeProfit()
			if e.metrics != nil {
				e.metrics.TradeProfit.Observe(record.ProfitPct)
			}
			e.logTrade(record)
			e.remove(pos.Mint)
			return
		}

		e.log.Warn("sell attempt failed",
			zap.String("mint", pos.Mint),
			zap.Int("attempt", attempts),
			zap.String("err", outcome.Err))
		if ctx.Err() != nil {
			break
		}
	}

	e.transition(pos, domain.StateExiting, domain.StateExitFailed)
	record.ExitedAt = time.Now()
	record.MarkTotalLoss(domain.TradeStatusSellFailed)
	e.logTrade(record)
	e.remove(pos.Mint)
}

// submit fetches a fresh blockhash, builds the transaction and hands it to
// the configured executor.
func (e *Engine) submit(ctx context.Context, build func(blockhash string) (*solana.Transaction, error)) domain.ExecutionOutcome {
	blockhash, err := e.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return domain.FailedOutcome("fetch blockhash: " + err.Error())
	}
	tx, err := build(blockhash.Blockhash)
	if err != nil {
		return domain.FailedOutcome("build transaction: " + err.Error())
	}

	started := time.Now()
	outcome := e.exec.ExecuteAndConfirm(ctx, tx, e.wallet, blockhash)
	if e.metrics != nil {
		e.metrics.SubmissionLatency.WithLabelValues(e.exec.Name()).Observe(time.Since(started).Seconds())
	}
	return outcome
}

// entryMinOut estimates the base amount the buy should return at the current
// pool price and bounds it by the buy slippage. Zero disables the on-chain
// minimum when no price is available.
func (e *Engine) entryMinOut(ctx context.Context, pos *domain.Position) uint64 {
	price, _, err := e.poolPrice(ctx, pos.PoolKeys)
	if err != nil || price <= 0 {
		e.log.Warn("no pool price for entry estimate, buying unbounded",
			zap.String("mint", pos.Mint), zap.Error(err))
		return 0
	}
	pos.EntryAmountOutEstimate = e.cfg.QuoteAmount / price
	return slippageMinOut(pos.EntryAmountOutEstimate, e.cfg.BuySlippage, pos.PoolKeys.BaseDecimals)
}

// exitMinOut bounds the quote amount a sell of the given raw base amount may
// return, by the sell slippage against the current pool price.
func (e *Engine) exitMinOut(ctx context.Context, pos *domain.Position, amount uint64) uint64 {
	price, _, err := e.poolPrice(ctx, pos.PoolKeys)
	if err != nil || price <= 0 {
		e.log.Warn("no pool price for exit estimate, selling unbounded",
			zap.String("mint", pos.Mint), zap.Error(err))
		return 0
	}
	expected := displayAmount(amount, pos.PoolKeys.BaseDecimals) * price
	return slippageMinOut(expected, e.cfg.SellSlippage, pos.PoolKeys.QuoteDecimals)
}

func (e *Engine) buildBuy(blockhash string, pos *domain.Position, amountIn, minOut uint64) (*solana.Transaction, error) {
	owner := e.wallet.PublicKey()
	instructions := []solana.Instruction{
		solana.SetComputeUnitLimit(e.cfg.ComputeUnitLimit),
		solana.SetComputeUnitPrice(e.cfg.ComputeUnitPrice),
		solana.CreateATAIdempotent(owner, pos.TokenAccount, owner, pos.PoolKeys.BaseMint),
		solana.RaydiumSwapBaseIn(pos.PoolKeys, pos.QuoteAccount, pos.TokenAccount, owner, amountIn, minOut),
	}
	return solana.BuildTransaction(e.wallet, blockhash, instructions)
}

func (e *Engine) buildSell(blockhash string, pos *domain.Position, amount, minOut uint64) (*solana.Transaction, error) {
	owner := e.wallet.PublicKey()
	instructions := []solana.Instruction{
		solana.SetComputeUnitLimit(e.cfg.ComputeUnitLimit),
		solana.SetComputeUnitPrice(e.cfg.ComputeUnitPrice),
		solana.CreateATAIdempotent(owner, pos.QuoteAccount, owner, pos.PoolKeys.QuoteMint),
		solana.RaydiumSwapBaseIn(pos.PoolKeys, pos.TokenAccount, pos.QuoteAccount, owner, amount, minOut),
		solana.CloseTokenAccount(pos.TokenAccount, owner, owner),
	}
	return solana.BuildTransaction(e.wallet, blockhash, instructions)
}

func (e *Engine) quoteBalance(ctx context.Context, account string) float64 {
	balance, err := e.rpc.GetTokenAccountBalance(ctx, account)
	if err != nil || balance == nil {
		return 0
	}
	return balance.UIAmount
}

func (e *Engine) countAttempt(buy, confirmed bool) {
	if e.metrics == nil {
		return
	}
	if buy {
		e.metrics.BuyAttempts.WithLabelValues(resultLabel(confirmed)).Inc()
	} else {
		e.metrics.SellAttempts.WithLabelValues(resultLabel(confirmed)).Inc()
	}
}

func rawAmount(display float64, decimals uint64) uint64 {
	return uint64(math.Round(display * math.Pow10(int(decimals))))
}

// slippageMinOut converts an expected display amount into the raw minimum
// acceptable after slippage, rounded down so the bound never overshoots the
// estimate.
func slippageMinOut(expected, slippagePct float64, decimals uint64) uint64 {
	if expected <= 0 || slippagePct >= 100 {
		return 0
	}
	bounded := expected * (100 - slippagePct) / 100
	return uint64(math.Floor(bounded * math.Pow10(int(decimals))))
}

func displayAmount(raw uint64, decimals uint64) float64 {
	return float64(raw) / math.Pow10(int(decimals))
}
