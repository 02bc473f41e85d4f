// Copyright (c) 2025 BVK Chaitanya

package gobs

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityConfig is the durable part of a tracked entity. Poll state (balance
// baseline, transfer cursor and history) is intentionally not part of it.
type EntityConfig struct {
	ID   string `json:"identity"`
	Mode string `json:"mode"`

	CallbackURL string `json:"callbackUrl,omitempty"`
	Broadcast   bool   `json:"broadcast,omitempty"`

	IntervalMillis int64 `json:"interval"`

	ExpectedAmount decimal.Decimal `json:"expectedAmount"`

	CreatedAt time.Time `json:"createdAt"`
}

// RegistryState is the single record holding all tracked entities.
type RegistryState struct {
	Entities []*EntityConfig `json:"entities"`

	SavedAt time.Time `json:"savedAt"`
}
