// Copyright (c) 2025 BVK Chaitanya

package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/bvk/ledgerwatch/idgen"
	"github.com/bvk/ledgerwatch/job"
	"github.com/bvk/ledgerwatch/metrics"
	"github.com/bvk/ledgerwatch/notify"
)

// pollLoop returns the recurring poll task for an entity. First poll runs
// immediately and the rest run once every poll interval. Polls of an entity
// never overlap.
func (t *Tracker) pollLoop(e *Entity) job.Func {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(e.config.PollInterval)
		defer ticker.Stop()

		for {
			t.poll(ctx, e)

			select {
			case <-ctx.Done():
				return context.Cause(ctx)
			case <-ticker.C:
			}
		}
	}
}

// poll runs one poll of the entity. Errors are logged and retried on the next
// tick.
func (t *Tracker) poll(ctx context.Context, e *Entity) {
	mode := string(e.config.Mode)
	start := time.Now()

	err := t.pollOnce(ctx, e)
	e.setPollResult(t.now(), err)

	metrics.Polls.WithLabelValues(mode).Inc()
	metrics.PollLatency.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.PollErrors.WithLabelValues(mode).Inc()
		slog.Warn("could not poll the entity (will retry)", "entity", e, "err", err)
	}
}

func (t *Tracker) pollOnce(ctx context.Context, e *Entity) (status error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("CAUGHT PANIC", "entity", e, "panic", r)
			slog.Error(string(debug.Stack()))
			status = fmt.Errorf("poll panicked: %v", r)
		}
	}()

	switch e.config.Mode {
	case BalanceWatch:
		return t.pollBalance(ctx, e)
	case TransferWatch:
		return t.pollTransfers(ctx, e)
	}
	return fmt.Errorf("unsupported mode %q", e.config.Mode)
}

func (t *Tracker) pollBalance(ctx context.Context, e *Entity) error {
	b, err := t.client.FetchBalance(ctx, e.id)
	if err != nil {
		return fmt.Errorf("%w: could not fetch balance: %w", ErrUpstreamUnavailable, err)
	}
	if b == nil {
		return fmt.Errorf("%w: empty balance response", ErrUpstreamUnavailable)
	}

	ce := e.observeBalance(t.now(), b)
	if ce == nil {
		return nil
	}
	metrics.Matches.WithLabelValues(string(e.config.Mode)).Inc()
	slog.Info("balance has changed", "entity", e, "previous", ce.Previous, "current", ce.Current, "delta", ce.Delta)

	t.dispatch(ctx, e, newBalanceEvent(e.id, ce))
	return nil
}

func (t *Tracker) pollTransfers(ctx context.Context, e *Entity) error {
	events, err := t.client.FetchTransferEvents(ctx, e.id)
	if err != nil {
		return fmt.Errorf("%w: could not fetch transfer events: %w", ErrUpstreamUnavailable, err)
	}

	var gen *idgen.Generator
	for _, tr := range e.pendingTransfers(events) {
		if err := context.Cause(ctx); err != nil {
			return err
		}
		// Event ids are stable across restarts for the same upstream events.
		if seed := transferSeed(e.id, tr.Sequence); gen == nil || gen.Seed() != seed {
			gen = idgen.New(seed, 0)
		}
		eventID := gen.NextID()

		ce, ok := e.evaluateTransfer(t.now(), tr)
		if !ok {
			return nil
		}
		if ce == nil {
			slog.Debug("transfer amount doesn't match the expected amount", "entity", e, "tick", tr.Sequence, "amount", tr.Amount)
			continue
		}
		metrics.Matches.WithLabelValues(string(e.config.Mode)).Inc()
		slog.Info("transfer with the expected amount is found", "entity", e, "tick", tr.Sequence, "amount", tr.Amount)

		t.dispatch(ctx, e, newTransferEvent(eventID.String(), e.id, ce, tr))
	}
	return nil
}

// dispatch delivers the event to the entity's destination. Delivery failures
// are logged and not retried.
func (t *Tracker) dispatch(ctx context.Context, e *Entity, event *notify.Event) {
	dest := e.config.destination()
	if dest.IsZero() {
		slog.Debug("entity has no destination configured; skipping notification", "entity", e, "event", event.ID)
		return
	}

	dctx, dcancel := context.WithTimeout(ctx, t.opts.DeliveryTimeout)
	defer dcancel()

	if err := t.notifier.Deliver(dctx, dest, event); err != nil {
		if !errors.Is(err, notify.ErrDeliveryFailed) {
			err = fmt.Errorf("%w: %w", notify.ErrDeliveryFailed, err)
		}
		slog.Error("could not deliver notification (ignored)", "entity", e, "event", event.ID, "kind", event.Kind, "err", err)
	}
}
