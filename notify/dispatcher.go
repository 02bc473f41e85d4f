// Copyright (c) 2025 BVK Chaitanya

package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/bvk/ledgerwatch/metrics"
)

// Dispatcher implements Notifier by fanning out events to the webhook and/or
// the broadcaster selected by the destination. Operator alerters, if any,
// receive a summary of every event.
type Dispatcher struct {
	webhook     *Webhook
	broadcaster *Broadcaster

	mu       sync.Mutex
	alerters []Alerter
}

var _ Notifier = &Dispatcher{}

func NewDispatcher(webhook *Webhook, broadcaster *Broadcaster, alerters ...Alerter) *Dispatcher {
	return &Dispatcher{
		webhook:     webhook,
		broadcaster: broadcaster,
		alerters:    alerters,
	}
}

func (d *Dispatcher) AddAlerter(a Alerter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.alerters = append(d.alerters, a)
}

func (d *Dispatcher) Deliver(ctx context.Context, dest Destination, event *Event) error {
	var errs []error

	if dest.Broadcast {
		if d.broadcaster == nil {
			errs = append(errs, fmt.Errorf("%w: broadcast is not configured", ErrDeliveryFailed))
			metrics.DeliveryErrors.WithLabelValues("broadcast").Inc()
		} else {
			d.broadcaster.Publish(event)
			metrics.Deliveries.WithLabelValues("broadcast").Inc()
		}
	}

	if len(dest.CallbackURL) != 0 {
		if err := d.webhook.Post(ctx, dest.CallbackURL, event); err != nil {
			errs = append(errs, fmt.Errorf("%w: webhook %q: %w", ErrDeliveryFailed, dest.CallbackURL, err))
			metrics.DeliveryErrors.WithLabelValues("webhook").Inc()
		} else {
			slog.Info("notification sent to the webhook", "account", event.AccountID, "event", event.ID, "url", dest.CallbackURL)
			metrics.Deliveries.WithLabelValues("webhook").Inc()
		}
	}

	d.mu.Lock()
	alerters := slices.Clone(d.alerters)
	d.mu.Unlock()

	for _, a := range alerters {
		if err := a.SendMessage(ctx, event.Timestamp, event.Summary()); err != nil {
			slog.Warn("could not send operator alert (ignored)", "account", event.AccountID, "err", err)
			metrics.DeliveryErrors.WithLabelValues("alert").Inc()
			continue
		}
		metrics.Deliveries.WithLabelValues("alert").Inc()
	}

	return errors.Join(errs...)
}
