// Package backend builds the document store selected by DATA_BACKEND.
package backend

import (
	"context"
	"time"

	"lapkeu/internal/store"
)

// CleanupFunc releases what a backend holds.
type CleanupFunc func() error

// BackendResult is the store plus its optional cleanup.
type BackendResult struct {
	Store   store.DocumentStore
	Cleanup CleanupFunc
	// Configured is false when the store is a store.Unconfigured placeholder.
	Configured bool
}

// Close runs Cleanup when there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type       BackendType
	DocumentID string

	// JSONBin
	JSONBinBaseURL   string
	JSONBinBinID     string
	JSONBinMasterKey string
	HTTPTimeout      time.Duration

	// SQLite
	SQLiteDBPath string

	// Mongo
	MongoURI      string
	MongoDatabase string

	// Memory: optional seed document
	MemorySeedFile string
}

type BackendType string

const (
	JSONBinBackend BackendType = "jsonbin"
	MemoryBackend  BackendType = "memory"
	SQLiteBackend  BackendType = "sqlite"
	MongoBackend   BackendType = "mongo"
)

func (bt BackendType) IsValid() bool {
	switch bt {
	case JSONBinBackend, MemoryBackend, SQLiteBackend, MongoBackend:
		return true
	}
	return false
}

func (bt BackendType) String() string {
	return string(bt)
}
