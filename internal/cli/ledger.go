package cli

import (
	"context"
	"fmt"

	"lapkeu/internal/backend"
	"lapkeu/internal/config"
	applog "lapkeu/internal/log"
	"lapkeu/internal/repository"
)

// Ledger is an opened repository and the store behind it.
type Ledger struct {
	*repository.Repository
	backend *backend.BackendResult
}

// Configured is false when the store lacks its secrets. Every store call
// then fails with store.ErrNotConfigured.
func (l *Ledger) Configured() bool { return l.backend.Configured }

// Close releases the store connection.
func (l *Ledger) Close() error { return l.backend.Close() }

// OpenLedger opens the store selected by DATA_BACKEND.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*Ledger, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger.Logger.With(applog.FieldComponent, applog.ComponentBackend)).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", bcfg.Type, err)
	}
	return &Ledger{
		Repository: repository.New(result.Store, repository.WithTimeout(cfg.StoreTimeout)),
		backend:    result,
	}, nil
}
