package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"solana-sniper/internal/analytics"
	"solana-sniper/internal/domain"
)

// monitor watches the pool price on a fixed cadence until an exit rule fires,
// the check window elapses, or ctx is cancelled. sellCtx outlives the monitor
// and carries the exit through.
func (e *Engine) monitor(ctx, sellCtx context.Context, pos *domain.Position) {
	ticker := time.NewTicker(e.cfg.PriceCheckInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(e.cfg.PriceCheckDuration)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			e.exit(sellCtx, pos, domain.ExitDurationElapsed)
			return
		case <-ticker.C:
		}

		price, liquidity, err := e.poolPrice(ctx, pos.PoolKeys)
		if err != nil {
			e.log.Warn("price check failed", zap.String("mint", pos.Mint), zap.Error(err))
			continue
		}

		e.recordTick(ctx, pos, price, liquidity)

		if liquidity < e.cfg.LiquidityFloor {
			e.abandonRugged(pos, liquidity)
			return
		}

		if pos.EntryPrice > 0 {
			change := (price - pos.EntryPrice) / pos.EntryPrice * 100
			if change >= e.cfg.TakeProfit {
				e.exit(sellCtx, pos, domain.ExitTakeProfit)
				return
			}
			if change <= -e.cfg.StopLoss {
				e.exit(sellCtx, pos, domain.ExitStopLoss)
				return
			}
		}
	}
}

// poolPrice reads both vault balances and returns the quote/base display
// ratio plus the quote-side liquidity.
func (e *Engine) poolPrice(ctx context.Context, keys *domain.PoolKeys) (price, liquidity float64, err error) {
	quote, err := e.rpc.GetTokenAccountBalance(ctx, keys.QuoteVault)
	if err != nil {
		return 0, 0, err
	}
	base, err := e.rpc.GetTokenAccountBalance(ctx, keys.BaseVault)
	if err != nil {
		return 0, 0, err
	}
	if quote == nil || base == nil {
		return 0, 0, fmt.Errorf("pool vault account missing")
	}
	if base.UIAmount == 0 {
		return 0, quote.UIAmount, nil
	}
	return quote.UIAmount / base.UIAmount, quote.UIAmount, nil
}

func (e *Engine) recordTick(ctx context.Context, pos *domain.Position, price, liquidity float64) {
	e.log.Debug("price tick",
		zap.String("mint", pos.Mint),
		zap.Float64("price", price),
		zap.Float64("liquidity", liquidity))

	err := e.sink.RecordPriceTick(ctx, analytics.PriceTick{
		Mint:      pos.Mint,
		Price:     price,
		Liquidity: liquidity,
		Timestamp: time.Now(),
	})
	if err != nil {
		e.log.Warn("analytics write failed", zap.Error(err))
	}
}

// abandonRugged terminates the position without selling. Selling into a
// drained pool only burns fees.
func (e *Engine) abandonRugged(pos *domain.Position, liquidity float64) {
	if !e.transition(pos, domain.StateHeld, domain.StateExiting) {
		return
	}
	e.transition(pos, domain.StateExiting, domain.StateClosed)

	e.log.Warn("liquidity collapsed, abandoning position",
		zap.String("mint", pos.Mint), zap.Float64("liquidity", liquidity))
	if e.metrics != nil {
		e.metrics.ExitReasons.WithLabelValues(string(domain.ExitLiquidityGone)).Inc()
	}

	record := &domain.TradeRecord{
		TradeID:        uuid.NewString(),
		Mint:           pos.Mint,
		AmountIn:       pos.EntryAmountIn,
		EntrySignature: pos.EntrySignature,
		EnteredAt:      pos.EnteredAt,
		ExitedAt:       time.Now(),
		ExitReason:     string(domain.ExitLiquidityGone),
	}
	record.MarkTotalLoss(domain.TradeStatusRugged)
	e.logTrade(record)
	e.remove(pos.Mint)
}
