// Copyright (c) 2025 BVK Chaitanya

// Package api defines the json requests, responses and url paths of the
// ledgerwatch management endpoints.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entity describes a tracked account.
type Entity struct {
	AccountID string `json:"accountId"`
	Mode      string `json:"mode"`

	CallbackURL string `json:"callbackUrl,omitempty"`
	Broadcast   bool   `json:"broadcast,omitempty"`

	// IntervalMillis is the poll interval in milliseconds.
	IntervalMillis int64 `json:"interval"`

	ExpectedAmount *decimal.Decimal `json:"expectedAmount,omitempty"`

	AddedAt    time.Time `json:"addedAt"`
	RunningFor string    `json:"runningFor"`

	// CurrentBalance is nil until the first successful balance poll.
	CurrentBalance  *decimal.Decimal `json:"currentBalance,omitempty"`
	LastBalanceTick uint64           `json:"lastBalanceTick,omitempty"`

	LastProcessedTick uint64 `json:"lastProcessedTick,omitempty"`

	LastPolledAt  *time.Time `json:"lastPolledAt,omitempty"`
	LastPollError string     `json:"lastPollError,omitempty"`
}

// Change is a change history entry of an entity.
type Change struct {
	Timestamp time.Time `json:"timestamp"`

	PreviousBalance *decimal.Decimal `json:"previousBalance,omitempty"`
	CurrentBalance  *decimal.Decimal `json:"currentBalance,omitempty"`
	Change          *decimal.Decimal `json:"change,omitempty"`

	Tick   uint64           `json:"tick,omitempty"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}
