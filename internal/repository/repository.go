// Package repository implements create, read, update and delete over the
// whole-document ledger store. Every write loads the current document,
// applies the change and saves the full list back.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"lapkeu/internal/core"
	"lapkeu/internal/store"
)

// DefaultTimeout bounds one store round trip.
const DefaultTimeout = 12 * time.Second

// ErrDuplicateID is returned when a draft carries an id already in the ledger.
var ErrDuplicateID = fmt.Errorf("%w: id already exists", core.ErrValidation)

// Draft is a transaction before it gets an id and a default date.
type Draft struct {
	ID     string      `json:"id,omitempty"`
	Type   core.Type   `json:"type"`
	Note   string      `json:"note"`
	Sector string      `json:"sector"`
	Amount core.Amount `json:"amount"`
	Date   core.Date   `json:"date"`
}

// Patch holds the fields an update replaces. Nil fields are kept.
type Patch struct {
	Type   *core.Type   `json:"type,omitempty"`
	Note   *string      `json:"note,omitempty"`
	Sector *string      `json:"sector,omitempty"`
	Amount *core.Amount `json:"amount,omitempty"`
	Date   *core.Date   `json:"date,omitempty"`
}

type Repository struct {
	store   store.DocumentStore
	timeout time.Duration
	now     func() time.Time
	newID   func() string

	reads singleflight.Group
	// writes in this process are serialized; other processes still race.
	writeMu sync.Mutex
}

type Option func(*Repository)

func WithTimeout(d time.Duration) Option {
	return func(r *Repository) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(r *Repository) { r.newID = fn }
}

func New(s store.DocumentStore, opts ...Option) *Repository {
	r := &Repository{
		store:   s,
		timeout: DefaultTimeout,
		now:     time.Now,
		newID:   NewID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewID returns tx_ followed by 32 hex digits.
func NewID() string {
	return "tx_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// StoreName identifies the backing store in logs.
func (r *Repository) StoreName() string { return r.store.Name() }

// List returns every stored transaction in stored order. Concurrent calls
// share one store round trip; each caller gets its own slice.
func (r *Repository) List(ctx context.Context) ([]core.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// The shared load must not die with whichever caller started it.
	loadCtx := context.WithoutCancel(ctx)
	ch := r.reads.DoChan("list", func() (any, error) {
		lctx, lcancel := context.WithTimeout(loadCtx, r.timeout)
		defer lcancel()
		return r.load(lctx)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list transactions: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("list transactions: %w", res.Err)
		}
		return slices.Clone(res.Val.([]core.Transaction)), nil
	}
}

// Create validates the draft, assigns an id and today's date when absent,
// and appends it. There is no balance check: expenses may exceed income.
func (r *Repository) Create(ctx context.Context, d Draft) (core.Transaction, error) {
	tx := core.Transaction{
		ID:     strings.TrimSpace(d.ID),
		Type:   d.Type,
		Note:   strings.TrimSpace(d.Note),
		Sector: strings.TrimSpace(d.Sector),
		Amount: d.Amount,
		Date:   d.Date,
	}
	if tx.ID == "" {
		tx.ID = r.newID()
	}
	if tx.Date.IsZero() {
		tx.Date = core.DateOf(r.now().UTC())
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	err := r.mutate(ctx, "create transaction", func(list []core.Transaction) ([]core.Transaction, error) {
		if slices.ContainsFunc(list, func(t core.Transaction) bool { return t.ID == tx.ID }) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, tx.ID)
		}
		return append(list, tx), nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", tx.ID,
		"type", string(tx.Type),
		"amount", int64(tx.Amount),
		"store", r.store.Name())
	return tx, nil
}

// Update merges the non-nil fields of p into the transaction id. The id
// itself never changes.
func (r *Repository) Update(ctx context.Context, id string, p Patch) (core.Transaction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Transaction{}, core.ErrMissingID
	}

	var updated core.Transaction
	err := r.mutate(ctx, "update transaction", func(list []core.Transaction) ([]core.Transaction, error) {
		i := slices.IndexFunc(list, func(t core.Transaction) bool { return t.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: transaction %s", core.ErrNotFound, id)
		}
		merged := apply(list[i], p)
		if err := merged.Validate(); err != nil {
			return nil, err
		}
		list[i] = merged
		updated = merged
		return list, nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction updated", "transaction_id", id, "store", r.store.Name())
	return updated, nil
}

// Delete removes the transaction id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return core.ErrMissingID
	}

	err := r.mutate(ctx, "delete transaction", func(list []core.Transaction) ([]core.Transaction, error) {
		i := slices.IndexFunc(list, func(t core.Transaction) bool { return t.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: transaction %s", core.ErrNotFound, id)
		}
		return slices.Delete(list, i, i+1), nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id, "store", r.store.Name())
	return nil
}

// Ping performs one load so readiness checks exercise the real store.
func (r *Repository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if _, err := r.store.Load(ctx); err != nil {
		return fmt.Errorf("ping %s store: %w", r.store.Name(), err)
	}
	return nil
}

// mutate runs load, change, save under one deadline. Domain errors from
// change are returned as is; store errors are wrapped with op.
func (r *Repository) mutate(ctx context.Context, op string, change func([]core.Transaction) ([]core.Transaction, error)) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	list, err := r.load(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	next, err := change(list)
	if err != nil {
		return err
	}
	doc, err := store.Encode(next)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := r.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *Repository) load(ctx context.Context) ([]core.Transaction, error) {
	raw, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	list, err := store.Decode(raw)
	if err != nil {
		return nil, err
	}
	return list, nil
}

func apply(t core.Transaction, p Patch) core.Transaction {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Note != nil {
		t.Note = strings.TrimSpace(*p.Note)
	}
	if p.Sector != nil {
		t.Sector = strings.TrimSpace(*p.Sector)
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Date != nil && !p.Date.IsZero() {
		t.Date = *p.Date
	}
	return t
}

// IsTimeout reports whether err came from the store deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
