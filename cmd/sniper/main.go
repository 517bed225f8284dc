package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"solana-sniper/internal/analytics"
	"solana-sniper/internal/cache"
	"solana-sniper/internal/config"
	"solana-sniper/internal/engine"
	"solana-sniper/internal/executor"
	"solana-sniper/internal/filters"
	"solana-sniper/internal/listeners"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/solana"
	"solana-sniper/internal/tradelog"
)

// abnormalHolderCount is how many identical top-holder balances flag a
// bundled launch.
const abnormalHolderCount = 3

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot, _ := zap.NewProduction()
		boot.Fatal("invalid configuration", zap.Error(err))
	}

	log := newLogger(cfg.LogLevel)
	defer log.Sync()

	wallet, err := solana.NewWalletFromBase58(cfg.PrivateKey)
	if err != nil {
		log.Fatal("parse private key", zap.Error(err))
	}
	log.Info("wallet loaded", zap.String("pubkey", wallet.PublicKey()))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rpc := solana.NewHTTPClient(cfg.RPCEndpoint, solana.WithCommitment(cfg.Commitment))
	metrics := observability.NewMetrics(nil)

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, log)
	}

	pools := cache.NewPoolCache()
	markets := cache.NewMarketCache(rpc, log)
	if cfg.PreloadExistingMarkets {
		if err := markets.PreloadExisting(ctx, cfg.QuoteMint); err != nil {
			log.Warn("market preload failed", zap.Error(err))
		}
	}

	var snipe *cache.SnipeList
	if cfg.UseSnipeList {
		snipe, err = cache.NewSnipeList(config.SnipeListFile, cfg.SnipeListRefreshInterval, log)
		if err != nil {
			log.Fatal("load snipe list", zap.Error(err))
		}
		go snipe.Run(ctx)
		log.Info("snipe list active", zap.Int("mints", snipe.Len()))
	}

	trades := openTradeLog(ctx, cfg, log)
	defer trades.Close()

	sink := openAnalytics(ctx, cfg, log)
	defer sink.Close()

	exec := buildExecutor(cfg, rpc, log)
	pipeline := buildPipeline(cfg, rpc, log)

	wsCfg := solana.DefaultWSConfig()
	wsCfg.Commitment = cfg.Commitment
	dial := func(ctx context.Context) (solana.WSClient, error) {
		return solana.NewWSClient(ctx, cfg.WSEndpoint, &wsCfg, log)
	}

	l := listeners.New(dial, listeners.Config{
		QuoteMint:       cfg.QuoteMint,
		WalletPubkey:    wallet.PublicKey(),
		CacheNewMarkets: cfg.CacheNewMarkets,
	}, metrics, log)
	if err := l.Start(ctx); err != nil {
		log.Fatal("start listeners", zap.Error(err))
	}
	defer l.Close()

	fee := 0.0
	if cfg.Executor != "default" {
		fee = cfg.CustomFee
	}

	eng := engine.New(engine.Config{
		QuoteMint:           cfg.QuoteMint,
		QuoteAmount:         cfg.QuoteAmount,
		AutoBuyDelay:        cfg.AutoBuyDelay,
		MaxBuyRetries:       cfg.MaxBuyRetries,
		AutoSell:            cfg.AutoSell,
		AutoSellDelay:       cfg.AutoSellDelay,
		MaxSellRetries:      cfg.MaxSellRetries,
		BuySlippage:         cfg.BuySlippage,
		SellSlippage:        cfg.SellSlippage,
		TakeProfit:          cfg.TakeProfit,
		StopLoss:            cfg.StopLoss,
		PriceCheckInterval:  cfg.PriceCheckInterval,
		PriceCheckDuration:  cfg.PriceCheckDuration,
		LiquidityFloor:      cfg.LiquidityFloor,
		OneTokenAtATime:     cfg.OneTokenAtATime,
		UseSnipeList:        cfg.UseSnipeList,
		FilterCheckInterval: cfg.FilterCheckInterval,
		FilterCheckDuration: cfg.FilterCheckDuration,
		ConsecutiveMatches:  cfg.ConsecutiveMatches,
		ComputeUnitLimit:    cfg.ComputeUnitLimit,
		ComputeUnitPrice:    cfg.ComputeUnitPrice,
		Fee:                 fee,
	}, engine.Deps{
		RPC:       rpc,
		Executor:  exec,
		Wallet:    wallet,
		Pipeline:  pipeline,
		Pools:     pools,
		Markets:   markets,
		SnipeList: snipe,
		Trades:    trades,
		Analytics: sink,
		Metrics:   metrics,
		Log:       log,
	})

	eng.Run(ctx, l)
	log.Info("shutdown complete")
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return log
}

func buildExecutor(cfg *config.Config, rpc solana.RPCClient, log *zap.Logger) executor.Executor {
	switch cfg.Executor {
	case "warp":
		return executor.NewWarpExecutor(executor.DefaultWarpURL, solLamports(cfg.CustomFee), nil, log)
	case "jito":
		return executor.NewJitoExecutor(rpc, cfg.Commitment, solLamports(cfg.CustomFee), nil, log)
	default:
		return executor.NewDefaultExecutor(rpc, cfg.Commitment, log)
	}
}

func solLamports(sol float64) uint64 {
	return uint64(sol * 1e9)
}

func buildPipeline(cfg *config.Config, rpc solana.RPCClient, log *zap.Logger) *filters.Pipeline {
	var fs []filters.Filter

	if cfg.CheckBurned {
		fs = append(fs, filters.NewBurnFilter(rpc))
	}
	if cfg.CheckRenounced || cfg.CheckFreezable {
		fs = append(fs, filters.NewRenouncedFilter(rpc, cfg.CheckRenounced, cfg.CheckFreezable))
	}
	if cfg.MinPoolSize > 0 || cfg.MaxPoolSize > 0 {
		fs = append(fs, filters.NewPoolSizeFilter(rpc, cfg.MinPoolSize, cfg.MaxPoolSize))
	}
	if cfg.HolderMinCount > 0 || cfg.TopHolderMaxPct > 0 || cfg.Top10MaxPct > 0 || cfg.CheckAbnormalDistribution {
		holders := filters.HoldersConfig{
			MinCount:        cfg.HolderMinCount,
			TopHolderMaxPct: cfg.TopHolderMaxPct,
			Top10MaxPct:     cfg.Top10MaxPct,
		}
		if cfg.CheckAbnormalDistribution {
			holders.AbnormalCount = abnormalHolderCount
		}
		if len(cfg.ExcludedHolderOwners) > 0 {
			holders.ExcludedOwners = make(map[string]bool, len(cfg.ExcludedHolderOwners))
			for _, owner := range cfg.ExcludedHolderOwners {
				holders.ExcludedOwners[owner] = true
			}
		}
		fs = append(fs, filters.NewHoldersFilter(rpc, holders))
	}
	if cfg.CheckMutable || cfg.CheckSocials || len(cfg.BlacklistedAuthorities) > 0 {
		blacklist := make(map[string]bool, len(cfg.BlacklistedAuthorities))
		for _, authority := range cfg.BlacklistedAuthorities {
			blacklist[authority] = true
		}
		fs = append(fs, filters.NewMetadataFilter(rpc, nil, filters.MetadataConfig{
			CheckMutable:           cfg.CheckMutable,
			CheckSocials:           cfg.CheckSocials,
			BlacklistedAuthorities: blacklist,
		}))
	}

	log.Info("filters configured", zap.Int("count", len(fs)))
	return filters.NewPipeline(log, fs...)
}

func openTradeLog(ctx context.Context, cfg *config.Config, log *zap.Logger) tradelog.Store {
	if cfg.PostgresDSN != "" {
		store, err := tradelog.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("open postgres trade log", zap.Error(err))
		}
		log.Info("trade log: postgres")
		return store
	}
	if cfg.TradeLogFile != "" {
		store, err := tradelog.NewFileStore(cfg.TradeLogFile)
		if err != nil {
			log.Fatal("open trade log file", zap.Error(err))
		}
		log.Info("trade log: file", zap.String("path", cfg.TradeLogFile))
		return store
	}
	log.Warn("trade log: in-memory, records are lost on exit")
	return tradelog.NewMemoryStore()
}

func openAnalytics(ctx context.Context, cfg *config.Config, log *zap.Logger) analytics.Sink {
	if cfg.ClickHouseDSN == "" {
		return analytics.NopSink{}
	}
	sink, err := analytics.NewClickHouseSink(ctx, cfg.ClickHouseDSN)
	if err != nil {
		log.Fatal("open clickhouse sink", zap.Error(err))
	}
	log.Info("analytics: clickhouse")
	return sink
}

func serveMetrics(addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	log.Info("metrics server listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("metrics server failed", zap.Error(err))
	}
}
