// Package memory keeps the ledger document in process memory. It backs local
// development and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"lapkeu/internal/store"
)

type Store struct {
	mu  sync.RWMutex
	doc []byte
}

var _ store.DocumentStore = (*Store)(nil)

// New returns a store holding a copy of seed.
func New(seed []byte) *Store {
	return &Store{doc: append([]byte(nil), seed...)}
}

// NewFromFile seeds the store from a JSON document on disk. A missing file
// yields an empty store.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return New(nil), nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("Seed file not found, starting with an empty ledger", "path", path)
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	if _, err := store.Decode(b); err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return New(b), nil
}

func (s *Store) Name() string { return "memory" }

func (s *Store) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]byte(nil), s.doc...), nil
}

func (s *Store) Save(ctx context.Context, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.doc = append([]byte(nil), doc...)
	s.mu.Unlock()
	return nil
}
