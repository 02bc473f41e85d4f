// Copyright (c) 2025 BVK Chaitanya

package api

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

const TrackPath = "/ledgerwatch/track"

type TrackRequest struct {
	AccountID string `json:"accountId,omitempty"`

	// Identity is accepted as an alias for AccountID.
	Identity string `json:"identity,omitempty"`

	// Mode is either BalanceWatch or TransferWatch. When empty, it is
	// TransferWatch if ExpectedAmount is set and BalanceWatch otherwise.
	Mode string `json:"mode,omitempty"`

	CallbackURL string `json:"callbackUrl,omitempty"`
	Broadcast   bool   `json:"broadcast,omitempty"`

	// IntervalMillis is the poll interval in milliseconds. Zero picks the
	// default interval for the mode.
	IntervalMillis int64 `json:"interval,omitempty"`

	ExpectedAmount *decimal.Decimal `json:"expectedAmount,omitempty"`
}

// ID returns the account id from either of the AccountID or Identity fields.
func (r *TrackRequest) ID() string {
	if len(r.AccountID) != 0 {
		return r.AccountID
	}
	return r.Identity
}

func (r *TrackRequest) Check() error {
	if len(r.AccountID) != 0 && len(r.Identity) != 0 && r.AccountID != r.Identity {
		return fmt.Errorf("accountId and identity fields must match: %w", os.ErrInvalid)
	}
	if r.IntervalMillis < 0 {
		return fmt.Errorf("interval cannot be negative: %w", os.ErrInvalid)
	}
	return nil
}

type TrackResponse struct {
	Entity *Entity `json:"entity"`
}
