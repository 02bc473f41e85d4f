// Copyright (c) 2025 BVK Chaitanya

package tracker

import (
	"time"

	"github.com/bvk/ledgerwatch/ledger"
	"github.com/bvk/ledgerwatch/notify"
	"github.com/google/uuid"
)

// observeBalance records the balance snapshot as the new baseline and returns
// the change relative to the previous baseline. Returns nil for the first
// observation, when the balance is unchanged or when the entity is removed.
func (e *Entity) observeBalance(at time.Time, b *ledger.Balance) *ChangeEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return nil
	}

	current := b.Balance
	previous := e.lastObservedBalance
	e.lastObservedBalance = &current
	e.lastBalanceTick = b.ValidForTick

	if previous == nil {
		return nil
	}
	delta := current.Sub(*previous)
	if delta.IsZero() {
		return nil
	}

	ce := &ChangeEvent{
		Timestamp: at,
		Previous:  *previous,
		Current:   current,
		Delta:     delta,
	}
	e.history.add(ce)
	return ce
}

func newBalanceEvent(id string, ce *ChangeEvent) *notify.Event {
	prev, cur, delta := ce.Previous, ce.Current, ce.Delta
	return &notify.Event{
		ID:              uuid.New().String(),
		Kind:            notify.BalanceChanged,
		AccountID:       id,
		PreviousBalance: &prev,
		CurrentBalance:  &cur,
		Change:          &delta,
		Timestamp:       ce.Timestamp,
	}
}
