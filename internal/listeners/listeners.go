// Package listeners owns the WebSocket subscriptions and translates raw
// account notifications into typed events. Each subscription runs on its own
// connection; some providers silently coalesce filters of subscriptions that
// share a socket.
package listeners

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"solana-sniper/internal/codec"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/solana"
)

// Dialer opens a fresh WebSocket connection.
type Dialer func(ctx context.Context) (solana.WSClient, error)

// Config selects what the listeners subscribe to.
type Config struct {
	// QuoteMint narrows pool and market subscriptions to one quote currency.
	QuoteMint string
	// WalletPubkey is the trading wallet whose token accounts are watched.
	WalletPubkey string
	// CacheNewMarkets enables the OpenBook market subscription.
	CacheNewMarkets bool
}

// MarketEvent is a newly observed OpenBook market.
type MarketEvent struct {
	Market *domain.MarketRef
	Slot   uint64
}

// WalletEvent is an update to one of the wallet's token accounts.
type WalletEvent struct {
	Address string
	Mint    string
	Amount  uint64
	Slot    uint64
}

// Listeners multiplexes the pool, market and wallet subscriptions into typed
// channels.
type Listeners struct {
	dial    Dialer
	cfg     Config
	log     *zap.Logger
	metrics *observability.Metrics

	pools   chan domain.PoolCandidate
	markets chan MarketEvent
	wallets chan WalletEvent

	clients []solana.WSClient
}

// New creates listeners. metrics may be nil.
func New(dial Dialer, cfg Config, metrics *observability.Metrics, log *zap.Logger) *Listeners {
	if log == nil {
		log = zap.NewNop()
	}
	return &Listeners{
		dial:    dial,
		cfg:     cfg,
		log:     log.Named("listeners"),
		metrics: metrics,
		pools:   make(chan domain.PoolCandidate, 64),
		markets: make(chan MarketEvent, 64),
		wallets: make(chan WalletEvent, 64),
	}
}

// Pools delivers newly observed swap-enabled pools quoted in the configured
// quote mint.
func (l *Listeners) Pools() <-chan domain.PoolCandidate { return l.pools }

// Markets delivers newly observed OpenBook markets. The channel never
// delivers when CacheNewMarkets is off.
func (l *Listeners) Markets() <-chan MarketEvent { return l.markets }

// Wallets delivers updates to the trading wallet's token accounts.
func (l *Listeners) Wallets() <-chan WalletEvent { return l.wallets }

// Start dials the connections and establishes all subscriptions. It returns
// once every subscription is confirmed; translation continues in background
// goroutines until Close.
func (l *Listeners) Start(ctx context.Context) error {
	if err := l.startPools(ctx); err != nil {
		l.Close()
		return err
	}
	if l.cfg.CacheNewMarkets {
		if err := l.startMarkets(ctx); err != nil {
			l.Close()
			return err
		}
	}
	if err := l.startWallet(ctx); err != nil {
		l.Close()
		return err
	}
	return nil
}

// Close tears down every connection. The typed channels close once their
// source subscriptions drain.
func (l *Listeners) Close() {
	for _, c := range l.clients {
		c.Close()
	}
}

func (l *Listeners) startPools(ctx context.Context) error {
	ch, err := l.subscribe(ctx, solana.RaydiumAMMV4ProgramID, solana.ProgramFilter{
		DataSize: codec.LiquidityStateV4Size,
		Memcmp: []solana.MemcmpFilter{
			{Offset: codec.LiquidityQuoteMintOffset, Bytes: l.cfg.QuoteMint},
			{Offset: codec.LiquidityMarketProgramOffset, Bytes: solana.OpenBookProgramID},
			{Offset: codec.LiquidityStatusOffset, Bytes: swapEnabledStatusBytes()},
		},
	})
	if err != nil {
		return fmt.Errorf("subscribe pools: %w", err)
	}

	go func() {
		defer close(l.pools)
		for notif := range ch {
			l.countNotification("pools")

			state, err := codec.DecodeLiquidityStateV4(notif.Data)
			if err != nil {
				l.countDecodeError("liquidity state v4")
				l.log.Warn("malformed pool account", zap.String("pool", notif.Pubkey), zap.Error(err))
				continue
			}

			l.pools <- domain.PoolCandidate{
				PoolID:       notif.Pubkey,
				BaseMint:     state.BaseMint,
				QuoteMint:    state.QuoteMint,
				QuoteVault:   state.QuoteVault,
				OpenTime:     int64(state.PoolOpenTime),
				State:        state,
				DetectedSlot: int64(notif.Slot),
			}
		}
	}()
	return nil
}

func (l *Listeners) startMarkets(ctx context.Context) error {
	ch, err := l.subscribe(ctx, solana.OpenBookProgramID, solana.ProgramFilter{
		DataSize: codec.MarketStateV3Size,
		Memcmp: []solana.MemcmpFilter{
			{Offset: codec.MarketQuoteMintOffset, Bytes: l.cfg.QuoteMint},
		},
	})
	if err != nil {
		return fmt.Errorf("subscribe markets: %w", err)
	}

	go func() {
		defer close(l.markets)
		for notif := range ch {
			l.countNotification("markets")

			market, err := codec.DecodeMarketStateV3(notif.Pubkey, notif.Data)
			if err != nil {
				l.countDecodeError("market state v3")
				l.log.Warn("malformed market account", zap.String("market", notif.Pubkey), zap.Error(err))
				continue
			}

			l.markets <- MarketEvent{Market: market, Slot: notif.Slot}
		}
	}()
	return nil
}

func (l *Listeners) startWallet(ctx context.Context) error {
	ch, err := l.subscribe(ctx, solana.TokenProgramID, solana.ProgramFilter{
		DataSize: codec.TokenAccountSize,
		Memcmp: []solana.MemcmpFilter{
			{Offset: codec.TokenAccountOwnerOffset, Bytes: l.cfg.WalletPubkey},
		},
	})
	if err != nil {
		return fmt.Errorf("subscribe wallet: %w", err)
	}

	go func() {
		defer close(l.wallets)
		for notif := range ch {
			l.countNotification("wallet")

			acc, err := codec.DecodeTokenAccount(notif.Data)
			if err != nil {
				l.countDecodeError("token account")
				l.log.Warn("malformed token account", zap.String("account", notif.Pubkey), zap.Error(err))
				continue
			}

			l.wallets <- WalletEvent{
				Address: notif.Pubkey,
				Mint:    acc.Mint,
				Amount:  acc.Amount,
				Slot:    notif.Slot,
			}
		}
	}()
	return nil
}

// subscribe dials a dedicated connection and establishes one subscription on
// it.
func (l *Listeners) subscribe(ctx context.Context, programID string, filter solana.ProgramFilter) (<-chan solana.AccountNotification, error) {
	client, err := l.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	l.clients = append(l.clients, client)

	ch, err := client.SubscribeProgram(ctx, programID, filter)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (l *Listeners) countNotification(subscription string) {
	if l.metrics != nil {
		l.metrics.WSNotifications.WithLabelValues(subscription).Inc()
	}
}

func (l *Listeners) countDecodeError(layout string) {
	if l.metrics != nil {
		l.metrics.DecodeErrors.WithLabelValues(layout).Inc()
	}
}

// swapEnabledStatusBytes encodes the swap-enabled pool status as the base58
// memcmp operand for the status field.
func swapEnabledStatusBytes() string {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], codec.PoolStatusSwapEnabled)
	return base58.Encode(buf[:])
}
