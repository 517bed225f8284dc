package codec

import "solana-sniper/internal/domain"

// MarketStateV3Size is the byte size of an OpenBook market account.
const MarketStateV3Size = 388

// Field offsets within the v3 market layout. The serum layout carries a
// 5-byte "serum" prefix before the first field.
const (
	MarketOwnAddressOffset       = 13
	MarketVaultSignerNonceOffset = 45
	MarketBaseMintOffset         = 53
	MarketQuoteMintOffset        = 85
	MarketBaseVaultOffset        = 117
	MarketQuoteVaultOffset       = 165
	MarketEventQueueOffset       = 253
	MarketBidsOffset             = 285
	MarketAsksOffset             = 317
)

// DecodeMarketStateV3 decodes the minimal market metadata needed to build a
// swap instruction.
func DecodeMarketStateV3(marketID string, data []byte) (*domain.MarketRef, error) {
	if len(data) < MarketStateV3Size {
		return nil, decodeErr("market state v3", "want %d bytes, got %d", MarketStateV3Size, len(data))
	}
	return &domain.MarketRef{
		MarketID:         marketID,
		EventQueue:       pubkey(data, MarketEventQueueOffset),
		Bids:             pubkey(data, MarketBidsOffset),
		Asks:             pubkey(data, MarketAsksOffset),
		BaseVault:        pubkey(data, MarketBaseVaultOffset),
		QuoteVault:       pubkey(data, MarketQuoteVaultOffset),
		VaultSignerNonce: u64(data, MarketVaultSignerNonceOffset),
	}, nil
}
