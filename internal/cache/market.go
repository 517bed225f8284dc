package cache

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"solana-sniper/internal/codec"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// MarketCache stores OpenBook market metadata keyed by market id. Pools and
// their markets arrive over independent subscriptions in either order, so a
// miss falls back to an RPC fetch.
type MarketCache struct {
	rpc solana.RPCClient
	log *zap.Logger

	mu      sync.RWMutex
	markets map[string]*domain.MarketRef
}

// NewMarketCache creates a market cache backed by the given RPC client.
func NewMarketCache(rpc solana.RPCClient, log *zap.Logger) *MarketCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &MarketCache{
		rpc:     rpc,
		log:     log.Named("market-cache"),
		markets: make(map[string]*domain.MarketRef),
	}
}

// Save stores a market ref, overwriting any previous entry for the id.
func (c *MarketCache) Save(market *domain.MarketRef) {
	c.mu.Lock()
	c.markets[market.MarketID] = market
	c.mu.Unlock()
}

// Get returns the market ref for a market id, fetching it over RPC on a
// cache miss.
func (c *MarketCache) Get(ctx context.Context, marketID string) (*domain.MarketRef, error) {
	c.mu.RLock()
	market, ok := c.markets[marketID]
	c.mu.RUnlock()
	if ok {
		return market, nil
	}

	info, err := c.rpc.GetAccountInfo(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("fetch market %s: %w", marketID, err)
	}
	if info == nil {
		return nil, fmt.Errorf("market %s not found", marketID)
	}

	market, err = codec.DecodeMarketStateV3(marketID, info.Data)
	if err != nil {
		return nil, err
	}

	c.Save(market)
	return market, nil
}

// PreloadExisting fetches all existing markets quoted in quoteMint and primes
// the cache with them. Optional startup step; the fetch is heavy on public
// RPC endpoints.
func (c *MarketCache) PreloadExisting(ctx context.Context, quoteMint string) error {
	sliceLen := codec.MarketStateV3Size
	accounts, err := c.rpc.GetProgramAccounts(ctx, solana.OpenBookProgramID, &solana.ProgramAccountsOpts{
		DataSize: codec.MarketStateV3Size,
		Memcmp: []solana.MemcmpFilter{
			{Offset: codec.MarketQuoteMintOffset, Bytes: quoteMint},
		},
		DataSliceLen: &sliceLen,
	})
	if err != nil {
		return fmt.Errorf("preload markets: %w", err)
	}

	for _, acc := range accounts {
		market, err := codec.DecodeMarketStateV3(acc.Pubkey, acc.Account.Data)
		if err != nil {
			c.log.Warn("skipping malformed market", zap.String("market", acc.Pubkey), zap.Error(err))
			continue
		}
		c.Save(market)
	}

	c.log.Info("preloaded markets", zap.Int("count", c.Len()))
	return nil
}

// Len returns the number of cached markets.
func (c *MarketCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.markets)
}
