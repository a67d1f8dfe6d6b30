package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lapkeu/internal/amqp"
	"lapkeu/internal/core"
	"lapkeu/internal/repository"
)

// Ledger is the repository behavior the service orchestrates.
type Ledger interface {
	List(ctx context.Context) ([]core.Transaction, error)
	Create(ctx context.Context, d repository.Draft) (core.Transaction, error)
	Update(ctx context.Context, id string, p repository.Patch) (core.Transaction, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// Publisher announces committed changes.
type Publisher interface {
	PublishTransaction(ctx context.Context, op amqp.Op, id string) error
}

// TransactionService writes through the ledger first and then publishes a
// change event. A failed publish is logged; the write already happened.
type TransactionService struct {
	ledger    Ledger
	publisher Publisher
	onChange  []func()
}

// NewTransactionService accepts a nil publisher when messaging is disabled.
func NewTransactionService(ledger Ledger, publisher Publisher) *TransactionService {
	return &TransactionService{ledger: ledger, publisher: publisher}
}

// OnChange registers fn to run after every successful write.
func (s *TransactionService) OnChange(fn func()) {
	s.onChange = append(s.onChange, fn)
}

func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	return s.ledger.List(ctx)
}

func (s *TransactionService) Ping(ctx context.Context) error {
	return s.ledger.Ping(ctx)
}

func (s *TransactionService) Create(ctx context.Context, d repository.Draft) (core.Transaction, error) {
	tx, err := s.ledger.Create(ctx, d)
	if err != nil {
		return core.Transaction{}, err
	}
	s.changed(ctx, amqp.OpCreate, tx.ID)
	return tx, nil
}

func (s *TransactionService) Update(ctx context.Context, id string, p repository.Patch) (core.Transaction, error) {
	tx, err := s.ledger.Update(ctx, id, p)
	if err != nil {
		return core.Transaction{}, err
	}
	s.changed(ctx, amqp.OpUpdate, tx.ID)
	return tx, nil
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if err := s.ledger.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, amqp.OpDelete, id)
	return nil
}

// Import creates each draft in order. Drafts whose id is already in the
// ledger are skipped, so re-importing a statement is harmless. It stops at
// the first other failure, returning what was created so far.
func (s *TransactionService) Import(ctx context.Context, drafts []repository.Draft) ([]core.Transaction, int, error) {
	created := make([]core.Transaction, 0, len(drafts))
	skipped := 0
	for i, d := range drafts {
		tx, err := s.Create(ctx, d)
		if errors.Is(err, repository.ErrDuplicateID) {
			skipped++
			continue
		}
		if err != nil {
			return created, skipped, fmt.Errorf("import draft %d: %w", i+1, err)
		}
		created = append(created, tx)
	}
	return created, skipped, nil
}

func (s *TransactionService) changed(ctx context.Context, op amqp.Op, id string) {
	for _, fn := range s.onChange {
		fn()
	}
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping change event", "op", string(op))
		return
	}
	if err := s.publisher.PublishTransaction(ctx, op, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event",
			"op", string(op),
			"transaction_id", id,
			"error", err)
	}
}
