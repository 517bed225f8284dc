// Package config loads the environment-backed configuration. Settings come
// from the process environment, optionally seeded from a .env file. Invalid
// required settings fail the load; the process must not start trading on a
// half-read configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"solana-sniper/internal/solana"
)

// SnipeListFile is the allow-list the operator edits while the process runs.
const SnipeListFile = "snipe-list.txt"

// Config is the full runtime configuration.
type Config struct {
	PrivateKey  string
	RPCEndpoint string
	WSEndpoint  string
	Commitment  string
	LogLevel    string

	QuoteMint   string // resolved mint address
	QuoteSymbol string // WSOL | USDC as configured
	QuoteAmount float64

	AutoBuyDelay  time.Duration
	MaxBuyRetries int

	AutoSell       bool
	AutoSellDelay  time.Duration
	MaxSellRetries int

	BuySlippage  float64 // percent
	SellSlippage float64 // percent

	TakeProfit float64
	StopLoss   float64

	PriceCheckInterval time.Duration
	PriceCheckDuration time.Duration
	LiquidityFloor     float64

	OneTokenAtATime bool

	UseSnipeList             bool
	SnipeListRefreshInterval time.Duration

	PreloadExistingMarkets bool
	CacheNewMarkets        bool

	FilterCheckInterval time.Duration
	FilterCheckDuration time.Duration
	ConsecutiveMatches  int

	CheckBurned    bool
	CheckRenounced bool
	CheckFreezable bool
	CheckMutable   bool
	CheckSocials   bool

	MinPoolSize float64
	MaxPoolSize float64

	HolderMinCount            int
	TopHolderMaxPct           float64
	Top10MaxPct               float64
	CheckAbnormalDistribution bool
	ExcludedHolderOwners      []string

	BlacklistedAuthorities []string

	Executor  string  // default | warp | jito
	CustomFee float64 // warp fee / jito tip, in SOL

	ComputeUnitLimit uint32
	ComputeUnitPrice uint64

	TradeLogFile  string
	PostgresDSN   string
	ClickHouseDSN string
	MetricsAddr   string
}

// Load reads the environment (seeded from .env when present) and validates
// the result.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may be set externally.
	_ = godotenv.Load()

	p := &envParser{}

	cfg := &Config{
		PrivateKey:  p.str("PRIVATE_KEY", ""),
		RPCEndpoint: p.str("RPC_ENDPOINT", ""),
		WSEndpoint:  p.str("RPC_WEBSOCKET_ENDPOINT", ""),
		Commitment:  p.str("COMMITMENT_LEVEL", "confirmed"),
		LogLevel:    p.str("LOG_LEVEL", "info"),

		QuoteSymbol: strings.ToUpper(p.str("QUOTE_MINT", "WSOL")),
		QuoteAmount: p.float("QUOTE_AMOUNT", 0),

		AutoBuyDelay:  p.millis("AUTO_BUY_DELAY", 0),
		MaxBuyRetries: p.integer("MAX_BUY_RETRIES", 5),

		AutoSell:       p.boolean("AUTO_SELL", false),
		AutoSellDelay:  p.millis("AUTO_SELL_DELAY", 0),
		MaxSellRetries: p.integer("MAX_SELL_RETRIES", 5),

		BuySlippage:  p.float("BUY_SLIPPAGE", 20),
		SellSlippage: p.float("SELL_SLIPPAGE", 20),

		TakeProfit: p.float("TAKE_PROFIT", 40),
		StopLoss:   p.float("STOP_LOSS", 20),

		PriceCheckInterval: p.millis("PRICE_CHECK_INTERVAL", 2*time.Second),
		PriceCheckDuration: p.millis("PRICE_CHECK_DURATION", 10*time.Minute),
		LiquidityFloor:     p.float("LIQUIDITY_FLOOR", 0),

		OneTokenAtATime: p.boolean("ONE_TOKEN_AT_A_TIME", true),

		UseSnipeList:             p.boolean("USE_SNIPE_LIST", false),
		SnipeListRefreshInterval: p.millis("SNIPE_LIST_REFRESH_INTERVAL", 30*time.Second),

		PreloadExistingMarkets: p.boolean("PRE_LOAD_EXISTING_MARKETS", false),
		CacheNewMarkets:        p.boolean("CACHE_NEW_MARKETS", false),

		FilterCheckInterval: p.millis("FILTER_CHECK_INTERVAL", 2*time.Second),
		FilterCheckDuration: p.millis("FILTER_CHECK_DURATION", time.Minute),
		ConsecutiveMatches:  p.integer("CONSECUTIVE_FILTER_MATCHES", 3),

		CheckBurned:    p.boolean("CHECK_IF_BURNED", false),
		CheckRenounced: p.boolean("CHECK_IF_MINT_IS_RENOUNCED", false),
		CheckFreezable: p.boolean("CHECK_IF_FREEZABLE", false),
		CheckMutable:   p.boolean("CHECK_IF_MUTABLE", false),
		CheckSocials:   p.boolean("CHECK_IF_SOCIALS", false),

		MinPoolSize: p.float("MIN_POOL_SIZE", 0),
		MaxPoolSize: p.float("MAX_POOL_SIZE", 0),

		HolderMinCount:            p.integer("HOLDER_MIN_COUNT", 0),
		TopHolderMaxPct:           p.float("TOP_HOLDER_MAX_PCT", 0),
		Top10MaxPct:               p.float("TOP10_MAX_PCT", 0),
		CheckAbnormalDistribution: p.boolean("CHECK_ABNORMAL_DISTRIBUTION", false),
		ExcludedHolderOwners:      p.list("EXCLUDED_HOLDER_OWNERS"),

		BlacklistedAuthorities: p.list("BLACKLISTED_AUTHORITIES"),

		Executor:  strings.ToLower(p.str("TRANSACTION_EXECUTOR", "default")),
		CustomFee: p.float("CUSTOM_FEE", 0.006),

		ComputeUnitLimit: uint32(p.integer("COMPUTE_UNIT_LIMIT", 101337)),
		ComputeUnitPrice: uint64(p.integer("COMPUTE_UNIT_PRICE", 421197)),

		TradeLogFile:  p.str("TRADE_LOG_FILE", ""),
		PostgresDSN:   p.str("POSTGRES_DSN", ""),
		ClickHouseDSN: p.str("CLICKHOUSE_DSN", ""),
		MetricsAddr:   p.str("METRICS_ADDR", ""),
	}

	if p.err != nil {
		return nil, p.err
	}

	switch cfg.QuoteSymbol {
	case "WSOL":
		cfg.QuoteMint = solana.WSOLMint
	case "USDC":
		cfg.QuoteMint = solana.USDCMint
	default:
		return nil, fmt.Errorf("QUOTE_MINT must be WSOL or USDC, got %q", cfg.QuoteSymbol)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the required settings.
func (c *Config) Validate() error {
	if c.PrivateKey == "" {
		return fmt.Errorf("PRIVATE_KEY is required")
	}
	if c.RPCEndpoint == "" {
		return fmt.Errorf("RPC_ENDPOINT is required")
	}
	if c.WSEndpoint == "" {
		return fmt.Errorf("RPC_WEBSOCKET_ENDPOINT is required")
	}
	if c.Commitment != "processed" && c.Commitment != "confirmed" && c.Commitment != "finalized" {
		return fmt.Errorf("COMMITMENT_LEVEL must be processed, confirmed or finalized, got %q", c.Commitment)
	}
	if c.QuoteAmount <= 0 {
		return fmt.Errorf("QUOTE_AMOUNT must be positive, got %v", c.QuoteAmount)
	}
	if c.MaxBuyRetries < 1 || c.MaxSellRetries < 1 {
		return fmt.Errorf("retry counts must be at least 1")
	}
	if c.ConsecutiveMatches < 1 {
		return fmt.Errorf("CONSECUTIVE_FILTER_MATCHES must be at least 1")
	}
	if c.PriceCheckInterval <= 0 || c.FilterCheckInterval <= 0 {
		return fmt.Errorf("check intervals must be positive")
	}
	if c.TakeProfit < 0 || c.StopLoss < 0 {
		return fmt.Errorf("TAKE_PROFIT and STOP_LOSS must not be negative")
	}
	if c.BuySlippage < 0 || c.BuySlippage > 100 || c.SellSlippage < 0 || c.SellSlippage > 100 {
		return fmt.Errorf("slippage must be between 0 and 100 percent")
	}
	if c.MinPoolSize < 0 || c.MaxPoolSize < 0 {
		return fmt.Errorf("pool size bounds must not be negative")
	}
	switch c.Executor {
	case "default", "warp", "jito":
	default:
		return fmt.Errorf("TRANSACTION_EXECUTOR must be default, warp or jito, got %q", c.Executor)
	}
	if c.CustomFee < 0 {
		return fmt.Errorf("CUSTOM_FEE must not be negative")
	}
	return nil
}

// envParser reads typed environment values, remembering the first parse
// error.
type envParser struct {
	err error
}

func (p *envParser) str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (p *envParser) boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		p.fail(key, v)
		return def
	}
	return b
}

func (p *envParser) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v)
		return def
	}
	return n
}

func (p *envParser) float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v)
		return def
	}
	return f
}

// millis parses an integer number of milliseconds.
func (p *envParser) millis(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		p.fail(key, v)
		return def
	}
	return time.Duration(n) * time.Millisecond
}

func (p *envParser) list(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (p *envParser) fail(key, value string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid value %q for %s", value, key)
	}
}
