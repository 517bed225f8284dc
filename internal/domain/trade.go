package domain

import "time"

// Trade status codes recorded in the trade log.
const (
	TradeStatusClosed      = "closed"
	TradeStatusEntryFailed = "entry_failed"
	TradeStatusSellFailed  = "sell_failed"
	TradeStatusRugged      = "rugged"
	TradeStatusNoBalance   = "no_balance"
)

// TradeRecord is the append-only record written once per terminal position.
// Amounts are in quote display units.
type TradeRecord struct {
	TradeID        string    `json:"trade_id"`
	Mint           string    `json:"mint"`
	AmountIn       float64   `json:"amount_in"`
	AmountOut      float64   `json:"amount_out"`
	Fee            float64   `json:"fee"`
	EntrySignature string    `json:"entry_signature,omitempty"`
	ExitSignature  string    `json:"exit_signature,omitempty"`
	EnteredAt      time.Time `json:"entered_at"`
	ExitedAt       time.Time `json:"exited_at"`
	ExitReason     string    `json:"exit_reason,omitempty"`
	Profit         float64   `json:"profit"`
	ProfitPct      float64   `json:"profit_pct"`
	Status         string    `json:"status"`
}

// ComputeProfit fills Profit and ProfitPct from amounts and total fees:
// profit = amountOut - amountIn - fee, profitPct = profit / amountIn * 100.
func (t *TradeRecord) ComputeProfit() {
	t.Profit = t.AmountOut - t.AmountIn - t.Fee
	if t.AmountIn != 0 {
		t.ProfitPct = t.Profit / t.AmountIn * 100
	}
}

// MarkTotalLoss records a full loss of the entry amount (rug, failed sell).
func (t *TradeRecord) MarkTotalLoss(status string) {
	t.AmountOut = 0
	t.Profit = -t.AmountIn
	t.ProfitPct = -100
	t.Status = status
}
