package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"lapkeu/internal/amqp"
	"lapkeu/internal/core"
	"lapkeu/internal/repository"
	"lapkeu/internal/store/memory"
)

type recordedEvent struct {
	op amqp.Op
	id string
}

type fakePublisher struct {
	events []recordedEvent
	err    error
}

func (f *fakePublisher) PublishTransaction(_ context.Context, op amqp.Op, id string) error {
	f.events = append(f.events, recordedEvent{op, id})
	return f.err
}

func newService(t *testing.T, pub Publisher) *TransactionService {
	t.Helper()
	repo := repository.New(memory.New(nil),
		repository.WithClock(func() time.Time { return time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC) }))
	return NewTransactionService(repo, pub)
}

func TestTransactionService_PublishesAfterWrites(t *testing.T) {
	pub := &fakePublisher{}
	svc := newService(t, pub)
	ctx := context.Background()

	changes := 0
	svc.OnChange(func() { changes++ })

	tx, err := svc.Create(ctx, repository.Draft{Type: core.Income, Amount: 500})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	note := "bonus"
	if _, err := svc.Update(ctx, tx.ID, repository.Patch{Note: &note}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.Delete(ctx, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []recordedEvent{{amqp.OpCreate, tx.ID}, {amqp.OpUpdate, tx.ID}, {amqp.OpDelete, tx.ID}}
	if len(pub.events) != len(want) {
		t.Fatalf("events = %v, want %v", pub.events, want)
	}
	for i := range want {
		if pub.events[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, pub.events[i], want[i])
		}
	}
	if changes != 3 {
		t.Errorf("OnChange ran %d times, want 3", changes)
	}
}

func TestTransactionService_FailedWriteDoesNotPublish(t *testing.T) {
	pub := &fakePublisher{}
	svc := newService(t, pub)

	_, err := svc.Create(context.Background(), repository.Draft{Type: core.Income, Amount: 0})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("no event expected, got %v", pub.events)
	}
}

func TestTransactionService_PublishFailureIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("circuit breaker is open")}
	svc := newService(t, pub)

	if _, err := svc.Create(context.Background(), repository.Draft{Type: core.Expense, Amount: 30000}); err != nil {
		t.Fatalf("publish failure must not fail the write: %v", err)
	}
	list, _ := svc.List(context.Background())
	if len(list) != 1 {
		t.Fatalf("transaction should be stored, got %d", len(list))
	}
}

func TestTransactionService_NilPublisher(t *testing.T) {
	svc := newService(t, nil)
	if _, err := svc.Create(context.Background(), repository.Draft{Type: core.Income, Amount: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestTransactionService_Import(t *testing.T) {
	svc := newService(t, nil)
	drafts := []repository.Draft{
		{Type: core.Income, Amount: 10},
		{Type: core.Expense, Amount: 5},
		{Type: core.Expense, Amount: 0},
		{Type: core.Expense, Amount: 7},
	}
	created, _, err := svc.Import(context.Background(), drafts)
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d, want 2", len(created))
	}
}

func TestTransactionService_ImportSkipsKnownIDs(t *testing.T) {
	svc := newService(t, nil)
	drafts := []repository.Draft{
		{ID: "ofx_1", Type: core.Expense, Amount: 10},
		{ID: "ofx_2", Type: core.Income, Amount: 20},
	}
	if _, _, err := svc.Import(context.Background(), drafts); err != nil {
		t.Fatalf("first import: %v", err)
	}

	created, skipped, err := svc.Import(context.Background(), append(drafts, repository.Draft{ID: "ofx_3", Type: core.Income, Amount: 5}))
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if len(created) != 1 || skipped != 2 {
		t.Fatalf("created %d skipped %d, want 1 and 2", len(created), skipped)
	}
}
