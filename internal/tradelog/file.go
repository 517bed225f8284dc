package tradelog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"solana-sniper/internal/domain"
)

// FileStore implements Store as an append-only newline-delimited JSON file.
// Existing records are indexed at open so duplicate trade ids are rejected
// across restarts.
type FileStore struct {
	mu   sync.Mutex
	f    *os.File
	path string
	ids  map[string]struct{}
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens (or creates) the trade log file at path.
func NewFileStore(path string) (*FileStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trade log: %w", err)
	}

	s := &FileStore{f: f, path: path, ids: make(map[string]struct{})}

	existing, err := s.readAll()
	if err != nil {
		f.Close()
		return nil, err
	}
	for _, t := range existing {
		s.ids[t.TradeID] = struct{}{}
	}

	return s, nil
}

func (s *FileStore) Insert(_ context.Context, t *domain.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[t.TradeID]; ok {
		return ErrDuplicateKey
	}

	line, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal trade record: %w", err)
	}
	if _, err := s.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append trade record: %w", err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("sync trade log: %w", err)
	}

	s.ids[t.TradeID] = struct{}{}
	return nil
}

func (s *FileStore) GetByID(_ context.Context, tradeID string) (*domain.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trades, err := s.readAll()
	if err != nil {
		return nil, err
	}
	for _, t := range trades {
		if t.TradeID == tradeID {
			return t, nil
		}
	}
	return nil, ErrNotFound
}

func (s *FileStore) GetByMint(_ context.Context, mint string) ([]*domain.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trades, err := s.readAll()
	if err != nil {
		return nil, err
	}
	var result []*domain.TradeRecord
	for _, t := range trades {
		if t.Mint == mint {
			result = append(result, t)
		}
	}
	return result, nil
}

func (s *FileStore) GetAll(_ context.Context) ([]*domain.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll()
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

func (s *FileStore) readAll() ([]*domain.TradeRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("read trade log: %w", err)
	}
	defer f.Close()

	var trades []*domain.TradeRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var t domain.TradeRecord
		if err := json.Unmarshal(line, &t); err != nil {
			return nil, fmt.Errorf("parse trade log line: %w", err)
		}
		trades = append(trades, &t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan trade log: %w", err)
	}
	return trades, nil
}
