package domain

// PoolCandidate is an immutable snapshot of a newly observed liquidity pool,
// taken at detection time. It is consumed synchronously during evaluation and
// not retained afterwards.
type PoolCandidate struct {
	PoolID       string // pool account address
	BaseMint     string
	QuoteMint    string
	QuoteVault   string
	OpenTime     int64 // pool open timestamp (unix seconds)
	State        *LiquidityState
	DetectedSlot int64
}

// LiquidityState holds the decoded fields of a Raydium AMM v4 liquidity
// account that the engine needs.
type LiquidityState struct {
	Status          uint64
	BaseDecimals    uint64
	QuoteDecimals   uint64
	PoolOpenTime    uint64
	BaseVault       string
	QuoteVault      string
	BaseMint        string
	QuoteMint       string
	LPMint          string
	OpenOrders      string
	MarketID        string
	MarketProgramID string
	TargetOrders    string
	WithdrawQueue   string
	LPVault         string
}

// MarketRef is the minimal market metadata needed to build a swap
// instruction. Cached keyed by market id; either the market or the pool may
// be observed first, so lookups fall back to an RPC fetch.
type MarketRef struct {
	MarketID         string
	Bids             string
	Asks             string
	EventQueue       string
	BaseVault        string
	QuoteVault       string
	VaultSignerNonce uint64
}

// PoolKeys is the full account set required to build a swap against one pool.
type PoolKeys struct {
	ID                string
	BaseMint          string
	QuoteMint         string
	LPMint            string
	BaseDecimals      uint64
	QuoteDecimals     uint64
	BaseVault         string
	QuoteVault        string
	OpenOrders        string
	TargetOrders      string
	WithdrawQueue     string
	LPVault           string
	MarketID          string
	MarketProgramID   string
	MarketBids        string
	MarketAsks        string
	MarketEventQueue  string
	MarketBaseVault   string
	MarketQuoteVault  string
	MarketVaultSigner string
}

// NewPoolKeys assembles PoolKeys from a decoded pool state and its market
// ref. vaultSigner is the market's derived vault authority.
func NewPoolKeys(poolID string, state *LiquidityState, market *MarketRef, vaultSigner string) *PoolKeys {
	return &PoolKeys{
		ID:                poolID,
		BaseMint:          state.BaseMint,
		QuoteMint:         state.QuoteMint,
		LPMint:            state.LPMint,
		BaseDecimals:      state.BaseDecimals,
		QuoteDecimals:     state.QuoteDecimals,
		BaseVault:         state.BaseVault,
		QuoteVault:        state.QuoteVault,
		OpenOrders:        state.OpenOrders,
		TargetOrders:      state.TargetOrders,
		WithdrawQueue:     state.WithdrawQueue,
		LPVault:           state.LPVault,
		MarketID:          state.MarketID,
		MarketProgramID:   state.MarketProgramID,
		MarketBids:        market.Bids,
		MarketAsks:        market.Asks,
		MarketEventQueue:  market.EventQueue,
		MarketBaseVault:   market.BaseVault,
		MarketQuoteVault:  market.QuoteVault,
		MarketVaultSigner: vaultSigner,
	}
}
