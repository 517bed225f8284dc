// Package tradelog persists one append-only record per terminal position.
// Three backends: newline-delimited JSON file, postgres, and an in-memory
// store for tests.
package tradelog

import (
	"context"
	"errors"

	"solana-sniper/internal/domain"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a trade_id that already
	// exists. The log is append-only; records are never updated.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")
)

// Store provides access to the trade log.
type Store interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// GetByMint retrieves all trades for a mint, oldest first.
	GetByMint(ctx context.Context, mint string) ([]*domain.TradeRecord, error)

	// GetAll retrieves all trades, oldest first.
	GetAll(ctx context.Context) ([]*domain.TradeRecord, error)

	// Close releases backend resources.
	Close() error
}
