// Copyright (c) 2025 BVK Chaitanya

package tracker

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/bvk/ledgerwatch/ledger"
	"github.com/bvk/ledgerwatch/notify"
)

// pendingTransfers returns the events past the cursor in ascending order of
// their sequence. Events sharing a sequence are all returned.
func (e *Entity) pendingTransfers(events []*ledger.TransferEvent) []*ledger.TransferEvent {
	e.mu.Lock()
	cursor := e.lastProcessedSequence
	e.mu.Unlock()

	var pending []*ledger.TransferEvent
	for _, ev := range events {
		if ev != nil && ev.Sequence > cursor {
			pending = append(pending, ev)
		}
	}
	slices.SortStableFunc(pending, func(a, b *ledger.TransferEvent) int {
		return cmp.Compare(a.Sequence, b.Sequence)
	})
	return pending
}

// evaluateTransfer advances the cursor past the event and returns a change
// event if the transfer amount equals the expected amount. Returns false if
// the entity is removed.
func (e *Entity) evaluateTransfer(at time.Time, ev *ledger.TransferEvent) (*ChangeEvent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return nil, false
	}
	if ev.Sequence > e.lastProcessedSequence {
		e.lastProcessedSequence = ev.Sequence
	}
	if !ev.Amount.Equal(e.config.ExpectedAmount) {
		return nil, true
	}

	ce := &ChangeEvent{
		Timestamp: at,
		Sequence:  ev.Sequence,
		Amount:    ev.Amount,
	}
	e.history.add(ce)
	return ce, true
}

// transferSeed names the id sequence for the transfer events of an account in
// a tick.
func transferSeed(id string, sequence uint64) string {
	return fmt.Sprintf("%s/transfer/%d", id, sequence)
}

func newTransferEvent(eventID, id string, ce *ChangeEvent, tr *ledger.TransferEvent) *notify.Event {
	amount := ce.Amount
	raw, err := tr.MarshalJSON()
	if err != nil {
		raw = nil
	}
	return &notify.Event{
		ID:             eventID,
		Kind:           notify.TransferMatched,
		AccountID:      id,
		Identity:       id,
		ExpectedAmount: &amount,
		Transaction:    raw,
		Success:        true,
		Message:        "Transaction with expected amount detected",
		Timestamp:      ce.Timestamp,
	}
}
