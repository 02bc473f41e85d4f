// Copyright (c) 2025 BVK Chaitanya

// Package ledger defines the upstream ledger service as seen by the tracker.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Client fetches account state from an upstream ledger. Implementations may
// return stale data and must not be assumed to order transfer events.
type Client interface {
	FetchBalance(ctx context.Context, id string) (*Balance, error)
	FetchTransferEvents(ctx context.Context, id string) ([]*TransferEvent, error)
}

// Balance is a balance snapshot of an account.
type Balance struct {
	ID string `json:"id"`

	Balance decimal.Decimal `json:"balance"`

	// ValidForTick is the ledger tick at which the balance was computed.
	ValidForTick uint64 `json:"validForTick"`
}

// TransferEvent is a single transfer on an account. Sequence is the ledger
// tick that included the transfer.
type TransferEvent struct {
	Sequence uint64

	Amount decimal.Decimal

	Source      string
	Destination string

	// Raw holds the event exactly as it was returned by the upstream.
	Raw json.RawMessage
}

func (v *TransferEvent) UnmarshalJSON(data []byte) error {
	type wire struct {
		Tick        json.RawMessage `json:"tick"`
		Amount      decimal.Decimal `json:"amount"`
		Source      string          `json:"source"`
		Destination string          `json:"destination"`
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	tick, err := parseUint(w.Tick)
	if err != nil {
		return fmt.Errorf("could not parse transfer event tick %q: %w", w.Tick, err)
	}
	*v = TransferEvent{
		Sequence:    tick,
		Amount:      w.Amount,
		Source:      w.Source,
		Destination: w.Destination,
		Raw:         bytes.Clone(data),
	}
	return nil
}

func (v *TransferEvent) MarshalJSON() ([]byte, error) {
	if len(v.Raw) != 0 {
		return v.Raw, nil
	}
	type wire struct {
		Tick        uint64          `json:"tick"`
		Amount      decimal.Decimal `json:"amount"`
		Source      string          `json:"source,omitempty"`
		Destination string          `json:"destination,omitempty"`
	}
	return json.Marshal(&wire{
		Tick:        v.Sequence,
		Amount:      v.Amount,
		Source:      v.Source,
		Destination: v.Destination,
	})
}

// parseUint accepts both json numbers and numeric strings.
func parseUint(data json.RawMessage) (uint64, error) {
	s := string(bytes.TrimSpace(data))
	if len(s) == 0 || s == "null" {
		return 0, fmt.Errorf("value is missing")
	}
	if uq, err := strconv.Unquote(s); err == nil {
		s = uq
	}
	return strconv.ParseUint(s, 10, 64)
}
