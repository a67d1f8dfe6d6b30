// Package worker keeps the spreadsheet mirror in step with the ledger.
package worker

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"lapkeu/internal/amqp"
	"lapkeu/internal/core"
	applog "lapkeu/internal/log"
	"lapkeu/internal/sheets"
)

// Source is the read side of the ledger.
type Source interface {
	List(ctx context.Context) ([]core.Transaction, error)
}

// Consumer delivers ledger change events until ctx ends.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, *amqp.TransactionEvent) error) error
}

// MirrorWorker rewrites the mirror on start, on every tick and after every
// change event. Runs never overlap.
type MirrorWorker struct {
	source   Source
	mirror   sheets.Mirror
	consumer Consumer
	interval time.Duration
	logger   *applog.StructuredLogger

	runs singleflight.Group
}

// NewMirrorWorker builds a worker. A nil consumer leaves only the ticker;
// a non-positive interval leaves only the events.
func NewMirrorWorker(source Source, mirror sheets.Mirror, consumer Consumer, interval time.Duration, logger *applog.Logger) *MirrorWorker {
	if logger == nil {
		logger = applog.FromContext(context.Background()).WithComponent(applog.ComponentWorker)
	}
	return &MirrorWorker{
		source:   source,
		mirror:   mirror,
		consumer: consumer,
		interval: interval,
		logger:   applog.NewStructuredLogger(logger),
	}
}

// Run mirrors once and then keeps mirroring until ctx ends. It returns nil
// on cancellation and the consumer error if event delivery stops.
func (w *MirrorWorker) Run(ctx context.Context) error {
	_ = w.MirrorNow(ctx)

	g, gctx := errgroup.WithContext(ctx)
	if w.interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(w.interval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					_ = w.MirrorNow(gctx)
				}
			}
		})
	}
	if w.consumer != nil {
		g.Go(func() error {
			err := w.consumer.Consume(gctx, w.HandleEvent)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		})
	}

	err := g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// HandleEvent mirrors after a change. Mirror failures are logged and left
// to the next tick so the event is not redelivered forever.
func (w *MirrorWorker) HandleEvent(ctx context.Context, e *amqp.TransactionEvent) error {
	_ = w.MirrorNow(ctx)
	return ctx.Err()
}

// MirrorNow runs one mirror, or joins the one in flight. When the run was
// shared it is followed by one more, because the shared run may have listed
// the ledger before the change that triggered this call.
func (w *MirrorWorker) MirrorNow(ctx context.Context) error {
	_, err, shared := w.runs.Do("mirror", func() (any, error) {
		return nil, w.runOnce(ctx)
	})
	if shared && ctx.Err() == nil {
		_, err, _ = w.runs.Do("mirror", func() (any, error) {
			return nil, w.runOnce(ctx)
		})
	}
	return err
}

func (w *MirrorWorker) runOnce(ctx context.Context) error {
	start := time.Now()
	list, err := w.source.List(ctx)
	rows := 0
	if err == nil {
		rows, err = w.mirror.Mirror(ctx, list)
	}
	w.logger.LogMirror(ctx, rows, time.Since(start).Milliseconds(), err)
	return err
}
