package tradelog

import (
	"context"
	"sync"

	"solana-sniper/internal/domain"
)

// MemoryStore implements Store in memory, preserving insertion order.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*domain.TradeRecord
	trades []*domain.TradeRecord
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory trade log.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*domain.TradeRecord)}
}

func (s *MemoryStore) Insert(_ context.Context, t *domain.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[t.TradeID]; ok {
		return ErrDuplicateKey
	}
	clone := *t
	s.byID[t.TradeID] = &clone
	s.trades = append(s.trades, &clone)
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, tradeID string) (*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byID[tradeID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (s *MemoryStore) GetByMint(_ context.Context, mint string) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*domain.TradeRecord
	for _, t := range s.trades {
		if t.Mint == mint {
			clone := *t
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (s *MemoryStore) GetAll(_ context.Context) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*domain.TradeRecord, len(s.trades))
	for i, t := range s.trades {
		clone := *t
		result[i] = &clone
	}
	return result, nil
}

func (s *MemoryStore) Close() error { return nil }
