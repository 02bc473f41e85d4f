// Copyright (c) 2025 BVK Chaitanya

package tracker

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bvk/ledgerwatch/gobs"
	"github.com/bvk/ledgerwatch/job"
	"github.com/bvk/ledgerwatch/notify"
	"github.com/shopspring/decimal"
)

type Mode string

const (
	// BalanceWatch diffs the latest balance snapshot against the previous one.
	BalanceWatch Mode = "BalanceWatch"

	// TransferWatch scans the transfer events for an expected amount.
	TransferWatch Mode = "TransferWatch"
)

// ParseMode accepts the mode names and their short forms "balance" and
// "transfer", ignoring the case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "balancewatch", "balance":
		return BalanceWatch, nil
	case "transferwatch", "transfer":
		return TransferWatch, nil
	}
	return "", fmt.Errorf("invalid mode %q: %w", s, ErrMissingRequiredField)
}

// Config holds the monitoring configuration for an entity.
type Config struct {
	// Mode selects the change detector. When empty, TransferWatch is picked if
	// an expected amount is given and BalanceWatch otherwise.
	Mode Mode

	CallbackURL string
	Broadcast   bool

	// PollInterval defaults to a mode specific value when zero.
	PollInterval time.Duration

	// ExpectedAmount is required for TransferWatch mode.
	ExpectedAmount decimal.Decimal
}

func (c *Config) setDefaults(opts *Options) {
	if len(c.Mode) == 0 {
		if c.ExpectedAmount.IsZero() {
			c.Mode = BalanceWatch
		} else {
			c.Mode = TransferWatch
		}
	}
	if c.PollInterval <= 0 {
		if c.Mode == TransferWatch {
			c.PollInterval = opts.DefaultTransferInterval
		} else {
			c.PollInterval = opts.DefaultBalanceInterval
		}
	}
}

func (c *Config) check(opts *Options) error {
	switch c.Mode {
	case BalanceWatch:
		if opts.RequireDestination && len(c.CallbackURL) == 0 && !c.Broadcast {
			return missingField("callback url or broadcast is required for %s mode", c.Mode)
		}
	case TransferWatch:
		if c.ExpectedAmount.IsZero() {
			return missingField("expected amount is required for %s mode", c.Mode)
		}
		if c.ExpectedAmount.IsNegative() {
			return missingField("expected amount must be positive")
		}
	default:
		return missingField("unsupported mode %q", c.Mode)
	}
	if !isCallbackURL(c.CallbackURL) {
		return missingField("callback url %q must be an absolute http(s) url", c.CallbackURL)
	}
	return nil
}

func (c *Config) destination() notify.Destination {
	return notify.Destination{
		CallbackURL: c.CallbackURL,
		Broadcast:   c.Broadcast,
	}
}

// ChangeEvent is a history entry. Balance fields are used by BalanceWatch
// entities and Sequence/Amount by TransferWatch entities.
type ChangeEvent struct {
	Timestamp time.Time

	Previous decimal.Decimal
	Current  decimal.Decimal
	Delta    decimal.Decimal

	Sequence uint64
	Amount   decimal.Decimal
}

// Entity is a tracked ledger account with its poll state.
type Entity struct {
	id        string
	config    Config
	createdAt time.Time

	// job is the recurring poll task; it is guarded by the Tracker's lock.
	job *job.Job

	mu sync.Mutex

	// removed is set when the entity is untracked, so that an in-flight poll
	// doesn't update a stale entity.
	removed bool

	lastObservedBalance *decimal.Decimal
	lastBalanceTick     uint64

	lastProcessedSequence uint64

	history history

	lastPolledAt time.Time
	lastPollErr  error
}

func newEntity(id string, cfg *Config, createdAt time.Time) *Entity {
	return &Entity{
		id:        id,
		config:    *cfg,
		createdAt: createdAt,
	}
}

func (e *Entity) String() string {
	return string(e.config.Mode) + ":" + e.id
}

func (e *Entity) markRemoved() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removed = true
}

func (e *Entity) setPollResult(at time.Time, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return
	}
	e.lastPolledAt, e.lastPollErr = at, err
}

func (e *Entity) toGob() *gobs.EntityConfig {
	return &gobs.EntityConfig{
		ID:             e.id,
		Mode:           string(e.config.Mode),
		CallbackURL:    e.config.CallbackURL,
		Broadcast:      e.config.Broadcast,
		IntervalMillis: e.config.PollInterval.Milliseconds(),
		ExpectedAmount: e.config.ExpectedAmount,
		CreatedAt:      e.createdAt,
	}
}

func configFromGob(v *gobs.EntityConfig) (*Config, error) {
	cfg := &Config{
		CallbackURL:    v.CallbackURL,
		Broadcast:      v.Broadcast,
		PollInterval:   time.Duration(v.IntervalMillis) * time.Millisecond,
		ExpectedAmount: v.ExpectedAmount,
	}
	if len(v.Mode) != 0 {
		mode, err := ParseMode(v.Mode)
		if err != nil {
			return nil, err
		}
		cfg.Mode = mode
	}
	return cfg, nil
}

// Descriptor is a point-in-time copy of a tracked entity.
type Descriptor struct {
	ID string

	Mode           Mode
	CallbackURL    string
	Broadcast      bool
	PollInterval   time.Duration
	ExpectedAmount decimal.Decimal

	CreatedAt time.Time

	// LastObservedBalance is nil until the first successful balance poll.
	LastObservedBalance *decimal.Decimal
	LastBalanceTick     uint64

	LastProcessedSequence uint64

	LastPolledAt  time.Time
	LastPollError string

	History []*ChangeEvent
}

func (e *Entity) describe(withHistory bool) *Descriptor {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := &Descriptor{
		ID:                    e.id,
		Mode:                  e.config.Mode,
		CallbackURL:           e.config.CallbackURL,
		Broadcast:             e.config.Broadcast,
		PollInterval:          e.config.PollInterval,
		ExpectedAmount:        e.config.ExpectedAmount,
		CreatedAt:             e.createdAt,
		LastBalanceTick:       e.lastBalanceTick,
		LastProcessedSequence: e.lastProcessedSequence,
		LastPolledAt:          e.lastPolledAt,
	}
	if e.lastObservedBalance != nil {
		b := *e.lastObservedBalance
		d.LastObservedBalance = &b
	}
	if e.lastPollErr != nil {
		d.LastPollError = e.lastPollErr.Error()
	}
	if withHistory {
		d.History = e.history.list()
	}
	return d
}
