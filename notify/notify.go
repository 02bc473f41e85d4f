// Copyright (c) 2025 BVK Chaitanya

// Package notify delivers tracker events to webhooks, live subscribers and
// operator alert channels.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrDeliveryFailed = errors.New("delivery failed")

type Kind string

const (
	BalanceChanged  Kind = "BALANCE_CHANGED"
	TransferMatched Kind = "TRANSFER_MATCHED"
)

// Destination identifies where an event should be delivered.
type Destination struct {
	CallbackURL string
	Broadcast   bool
}

func (d Destination) IsZero() bool {
	return len(d.CallbackURL) == 0 && !d.Broadcast
}

// Event is the payload delivered to destinations. Balance fields are set for
// BalanceChanged events and transfer fields for TransferMatched events.
type Event struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`

	AccountID string `json:"accountId"`

	PreviousBalance *decimal.Decimal `json:"previousBalance,omitempty"`
	CurrentBalance  *decimal.Decimal `json:"currentBalance,omitempty"`
	Change          *decimal.Decimal `json:"change,omitempty"`

	// Identity duplicates AccountID for transfer webhooks.
	Identity       string           `json:"identity,omitempty"`
	ExpectedAmount *decimal.Decimal `json:"expectedAmount,omitempty"`
	Transaction    json.RawMessage  `json:"transaction,omitempty"`
	Success        bool             `json:"success,omitempty"`

	Message string `json:"message,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Notifier delivers an event to a destination.
type Notifier interface {
	Deliver(ctx context.Context, dest Destination, event *Event) error
}

// Alerter is an operator-facing message sink, like pushover or telegram.
type Alerter interface {
	SendMessage(ctx context.Context, at time.Time, msg string) error
}

// Summary returns a one-line human readable description of the event.
func (e *Event) Summary() string {
	switch e.Kind {
	case BalanceChanged:
		var prev, cur, change decimal.Decimal
		if e.PreviousBalance != nil {
			prev = *e.PreviousBalance
		}
		if e.CurrentBalance != nil {
			cur = *e.CurrentBalance
		}
		if e.Change != nil {
			change = *e.Change
		}
		return fmt.Sprintf("Balance of %s changed by %s (%s -> %s)", e.AccountID, change, prev, cur)
	case TransferMatched:
		var amount decimal.Decimal
		if e.ExpectedAmount != nil {
			amount = *e.ExpectedAmount
		}
		return fmt.Sprintf("Transfer of expected amount %s detected for %s", amount, e.AccountID)
	default:
		return fmt.Sprintf("Event %s for %s", e.Kind, e.AccountID)
	}
}
