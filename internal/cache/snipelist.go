package cache

import (
	"bufio"
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SnipeList is a file-backed allow-list of base mints, one per line. Lines
// starting with '#' are comments. The file is re-read on a fixed cadence so
// the operator can edit it while the process runs.
type SnipeList struct {
	path     string
	interval time.Duration
	log      *zap.Logger

	mu    sync.RWMutex
	mints map[string]struct{}
}

// NewSnipeList creates a snipe list and performs the initial load.
func NewSnipeList(path string, interval time.Duration, log *zap.Logger) (*SnipeList, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &SnipeList{
		path:     path,
		interval: interval,
		log:      log.Named("snipe-list"),
		mints:    make(map[string]struct{}),
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Run reloads the list on the configured interval until ctx is cancelled.
func (s *SnipeList) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.reload(); err != nil {
				s.log.Warn("reload failed", zap.Error(err))
			}
		}
	}
}

// Contains reports whether a mint is on the list.
func (s *SnipeList) Contains(mint string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.mints[mint]
	return ok
}

// Len returns the number of listed mints.
func (s *SnipeList) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mints)
}

func (s *SnipeList) reload() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	mints := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		mints[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	changed := len(mints) != len(s.mints)
	s.mints = mints
	s.mu.Unlock()

	if changed {
		s.log.Info("snipe list updated", zap.Int("mints", len(mints)))
	}
	return nil
}
