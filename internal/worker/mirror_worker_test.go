package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"lapkeu/internal/amqp"
	"lapkeu/internal/core"
	applog "lapkeu/internal/log"
	"lapkeu/internal/sheets/memory"
)

type fakeSource struct {
	mu   sync.Mutex
	list []core.Transaction
	err  error
}

func (s *fakeSource) List(ctx context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.list...), s.err
}

func (s *fakeSource) add(t core.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = append(s.list, t)
}

// fakeConsumer hands every event on its channel to the handler.
type fakeConsumer struct {
	events chan *amqp.TransactionEvent
	err    error
}

func (c *fakeConsumer) Consume(ctx context.Context, handler func(context.Context, *amqp.TransactionEvent) error) error {
	if c.err != nil {
		return c.err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-c.events:
			if err := handler(ctx, e); err != nil {
				return err
			}
		}
	}
}

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard, Component: applog.ComponentWorker})
}

func tx(id string, amount core.Amount) core.Transaction {
	return core.Transaction{ID: id, Type: core.Income, Amount: amount, Date: core.NewDate(2025, 1, 2)}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMirrorNow(t *testing.T) {
	src := &fakeSource{list: []core.Transaction{tx("a", 100), tx("b", 200)}}
	mirror := memory.New()
	w := NewMirrorWorker(src, mirror, nil, 0, quietLogger())

	if err := w.MirrorNow(context.Background()); err != nil {
		t.Fatalf("MirrorNow: %v", err)
	}
	grid := mirror.Grid("Transactions")
	if len(grid) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d rows", len(grid))
	}
}

func TestMirrorNow_Errors(t *testing.T) {
	tests := []struct {
		name      string
		sourceErr error
		mirrorErr error
		wantRuns  int
	}{
		{"source fails", errors.New("store down"), nil, 0},
		{"mirror fails", nil, errors.New("quota"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{err: tt.sourceErr}
			mirror := memory.New()
			mirror.FailWith(tt.mirrorErr)
			w := NewMirrorWorker(src, mirror, nil, 0, quietLogger())

			if err := w.MirrorNow(context.Background()); err == nil {
				t.Fatal("expected an error")
			}
			if got := mirror.Runs(); got != tt.wantRuns {
				t.Errorf("mirror runs = %d, want %d", got, tt.wantRuns)
			}
		})
	}
}

func TestRun_InitialAndEvents(t *testing.T) {
	src := &fakeSource{list: []core.Transaction{tx("a", 100)}}
	mirror := memory.New()
	consumer := &fakeConsumer{events: make(chan *amqp.TransactionEvent)}
	w := NewMirrorWorker(src, mirror, consumer, 0, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, func() bool { return mirror.Runs() >= 1 })

	src.add(tx("b", 50))
	consumer.events <- amqp.NewTransactionEvent(amqp.OpCreate, "b")
	waitFor(t, func() bool { return len(mirror.Grid("Transactions")) == 3 })

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v after cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRun_Ticker(t *testing.T) {
	src := &fakeSource{}
	mirror := memory.New()
	w := NewMirrorWorker(src, mirror, nil, 10*time.Millisecond, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, func() bool { return mirror.Runs() >= 3 })
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run: %v", err)
	}
}

func TestRun_FailedMirrorDoesNotStopEvents(t *testing.T) {
	src := &fakeSource{list: []core.Transaction{tx("a", 100)}}
	mirror := memory.New()
	mirror.FailWith(errors.New("quota"))
	consumer := &fakeConsumer{events: make(chan *amqp.TransactionEvent)}
	w := NewMirrorWorker(src, mirror, consumer, 0, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	consumer.events <- amqp.NewTransactionEvent(amqp.OpUpdate, "a")
	mirror.FailWith(nil)
	consumer.events <- amqp.NewTransactionEvent(amqp.OpUpdate, "a")
	waitFor(t, func() bool { return len(mirror.Grid("Transactions")) == 2 })
}

func TestRun_ConsumerError(t *testing.T) {
	boom := errors.New("broker gone")
	w := NewMirrorWorker(&fakeSource{}, memory.New(), &fakeConsumer{err: boom}, time.Hour, quietLogger())

	err := w.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want %v", err, boom)
	}
}

func TestNewMirrorWorker_NilLogger(t *testing.T) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	w := NewMirrorWorker(&fakeSource{}, memory.New(), nil, 0, nil)
	if err := w.MirrorNow(context.Background()); err != nil {
		t.Fatalf("MirrorNow: %v", err)
	}
}
