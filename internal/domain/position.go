package domain

import "time"

// PositionState is the lifecycle state of a position.
type PositionState string

// Position lifecycle states. Terminal states are Closed, EntryFailed and
// ExitFailed; a position in a terminal state is removed from the live map.
const (
	StateCandidate   PositionState = "CANDIDATE"
	StateEntering    PositionState = "ENTERING"
	StateHeld        PositionState = "HELD"
	StateExiting     PositionState = "EXITING"
	StateClosed      PositionState = "CLOSED"
	StateEntryFailed PositionState = "ENTRY_FAILED"
	StateExitFailed  PositionState = "EXIT_FAILED"
)

// Terminal reports whether s is a terminal state.
func (s PositionState) Terminal() bool {
	switch s {
	case StateClosed, StateEntryFailed, StateExitFailed:
		return true
	}
	return false
}

// Position is the per-token trading position. It is owned exclusively by the
// engine goroutine handling its mint; at most one live Position exists per
// mint at any time.
type Position struct {
	Mint           string
	PoolKeys       *PoolKeys
	State          PositionState
	EntrySignature string
	ExitSignature  string

	// EntryAmountIn is the quote amount spent, in display units.
	EntryAmountIn float64
	// EntryAmountOutEstimate is the base amount expected at the pool price
	// observed before the buy; the slippage-bounded minimum derives from it.
	EntryAmountOutEstimate float64
	// EntryAmountOut is the realized base token amount received, computed
	// from the post-buy balance rather than the quoted estimate.
	EntryAmountOut float64
	// EntryPrice is the pool price observed right after entry confirmed.
	EntryPrice float64

	QuoteAccount string // payer's quote token account
	TokenAccount string // payer's base token account (ATA)

	CreatedAt time.Time
	EnteredAt time.Time
}

// ExitReason describes why the monitor initiated (or abandoned) an exit.
type ExitReason string

const (
	ExitTakeProfit      ExitReason = "TAKE_PROFIT"
	ExitStopLoss        ExitReason = "STOP_LOSS"
	ExitDurationElapsed ExitReason = "DURATION_ELAPSED"
	ExitLiquidityGone   ExitReason = "LIQUIDITY_COLLAPSED"
	ExitAutoSell        ExitReason = "AUTO_SELL"
)
