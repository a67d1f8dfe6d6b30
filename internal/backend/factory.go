package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"lapkeu/internal/store"
	"lapkeu/internal/store/jsonbin"
	"lapkeu/internal/store/memory"
	"lapkeu/internal/store/mongo"
	"lapkeu/internal/store/sqlite"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the configured store. A backend lacking its secrets
// comes back as a store.Unconfigured so the caller can still start and
// report the problem per request.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case JSONBinBackend:
		return f.createJSONBinBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MongoBackend:
		return f.createMongoBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createJSONBinBackend(config Config) (*BackendResult, error) {
	client, err := jsonbin.New(jsonbin.Config{
		BaseURL:    config.JSONBinBaseURL,
		BinID:      config.JSONBinBinID,
		MasterKey:  config.JSONBinMasterKey,
		HTTPClient: newHTTPClientWithPooling(config.HTTPTimeout),
	})
	if errors.Is(err, store.ErrNotConfigured) {
		return f.unconfigured(JSONBinBackend, err), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JSONBin client: %w", err)
	}

	f.logger.Info("Initialized JSONBin backend", "base_url", config.JSONBinBaseURL)
	return &BackendResult{Store: client, Configured: true}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	s, err := sqlite.Open(config.SQLiteDBPath, config.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"document_id", config.DocumentID)
	return &BackendResult{Store: s, Cleanup: s.Close, Configured: true}, nil
}

func (f *DefaultFactory) createMongoBackend(ctx context.Context, config Config) (*BackendResult, error) {
	s, err := mongo.Connect(ctx, config.MongoURI, config.MongoDatabase, config.DocumentID)
	if errors.Is(err, store.ErrNotConfigured) {
		return f.unconfigured(MongoBackend, err), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Mongo store: %w", err)
	}

	f.logger.Info("Initialized Mongo backend",
		"database", config.MongoDatabase,
		"document_id", config.DocumentID)
	cleanup := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Close(ctx)
	}
	return &BackendResult{Store: s, Cleanup: cleanup, Configured: true}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	s, err := memory.NewFromFile(config.MemorySeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory store: %w", err)
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.MemorySeedFile)
	return &BackendResult{Store: s, Configured: true}, nil
}

func (f *DefaultFactory) unconfigured(bt BackendType, err error) *BackendResult {
	f.logger.Warn("Store is not configured, requests will fail until it is",
		"backend", bt.String(),
		"error", err)
	return &BackendResult{
		Store:      store.Unconfigured{Backend: bt.String(), Err: err},
		Configured: false,
	}
}

// newHTTPClientWithPooling keeps connections to the store host warm between
// the read and write of one request.
func newHTTPClientWithPooling(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout + 5*time.Second,
	}
}
