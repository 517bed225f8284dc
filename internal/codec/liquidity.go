package codec

import "solana-sniper/internal/domain"

// LiquidityStateV4Size is the byte size of a Raydium AMM v4 liquidity account.
const LiquidityStateV4Size = 752

// Field offsets within the v4 liquidity layout. The subscription memcmp
// filters reference the same offsets, so they live here next to the decoder.
const (
	LiquidityStatusOffset          = 0
	LiquidityBaseDecimalOffset     = 32
	LiquidityQuoteDecimalOffset    = 40
	LiquidityPoolOpenTimeOffset    = 224
	LiquidityBaseVaultOffset       = 336
	LiquidityQuoteVaultOffset      = 368
	LiquidityBaseMintOffset        = 400
	LiquidityQuoteMintOffset       = 432
	LiquidityLPMintOffset          = 464
	LiquidityOpenOrdersOffset      = 496
	LiquidityMarketIDOffset        = 528
	LiquidityMarketProgramOffset   = 560
	LiquidityTargetOrdersOffset    = 592
	LiquidityWithdrawQueueOffset   = 624
	LiquidityLPVaultOffset         = 656
)

// PoolStatusSwapEnabled is the status value of a pool open for swapping.
const PoolStatusSwapEnabled = 6

// DecodeLiquidityStateV4 decodes the fields of a Raydium AMM v4 liquidity
// account that the engine needs.
func DecodeLiquidityStateV4(data []byte) (*domain.LiquidityState, error) {
	if len(data) < LiquidityStateV4Size {
		return nil, decodeErr("liquidity state v4", "want %d bytes, got %d", LiquidityStateV4Size, len(data))
	}
	return &domain.LiquidityState{
		Status:          u64(data, LiquidityStatusOffset),
		BaseDecimals:    u64(data, LiquidityBaseDecimalOffset),
		QuoteDecimals:   u64(data, LiquidityQuoteDecimalOffset),
		PoolOpenTime:    u64(data, LiquidityPoolOpenTimeOffset),
		BaseVault:       pubkey(data, LiquidityBaseVaultOffset),
		QuoteVault:      pubkey(data, LiquidityQuoteVaultOffset),
		BaseMint:        pubkey(data, LiquidityBaseMintOffset),
		QuoteMint:       pubkey(data, LiquidityQuoteMintOffset),
		LPMint:          pubkey(data, LiquidityLPMintOffset),
		OpenOrders:      pubkey(data, LiquidityOpenOrdersOffset),
		MarketID:        pubkey(data, LiquidityMarketIDOffset),
		MarketProgramID: pubkey(data, LiquidityMarketProgramOffset),
		TargetOrders:    pubkey(data, LiquidityTargetOrdersOffset),
		WithdrawQueue:   pubkey(data, LiquidityWithdrawQueueOffset),
		LPVault:         pubkey(data, LiquidityLPVaultOffset),
	}, nil
}
