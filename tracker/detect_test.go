// Copyright (c) 2025 BVK Chaitanya

package tracker

import (
	"testing"
	"time"

	"github.com/bvk/ledgerwatch/ledger"
	"github.com/shopspring/decimal"
)

func TestObserveBalance(t *testing.T) {
	e := newEntity("A", &Config{Mode: BalanceWatch}, time.Now())
	now := time.Now()

	if ce := e.observeBalance(now, &ledger.Balance{Balance: decimal.NewFromInt(1000), ValidForTick: 10}); ce != nil {
		t.Fatalf("first observation must not report a change")
	}
	if ce := e.observeBalance(now, &ledger.Balance{Balance: decimal.NewFromInt(1000), ValidForTick: 11}); ce != nil {
		t.Fatalf("unchanged balance must not report a change")
	}
	ce := e.observeBalance(now, &ledger.Balance{Balance: decimal.NewFromInt(1200), ValidForTick: 12})
	if ce == nil {
		t.Fatalf("want a balance change, got nil")
	}
	if !ce.Previous.Equal(decimal.NewFromInt(1000)) || !ce.Current.Equal(decimal.NewFromInt(1200)) || !ce.Delta.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("want 1000 -> 1200 (+200), got %s -> %s (%s)", ce.Previous, ce.Current, ce.Delta)
	}
	ce = e.observeBalance(now, &ledger.Balance{Balance: decimal.NewFromInt(900), ValidForTick: 13})
	if ce == nil || !ce.Delta.Equal(decimal.NewFromInt(-300)) {
		t.Fatalf("want a negative delta of -300, got %v", ce)
	}

	d := e.describe(true)
	if len(d.History) != 2 {
		t.Fatalf("want 2 history entries, got %d", len(d.History))
	}
	if d.LastObservedBalance == nil || !d.LastObservedBalance.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("want last observed balance 900, got %v", d.LastObservedBalance)
	}
	if d.LastBalanceTick != 13 {
		t.Fatalf("want last balance tick 13, got %d", d.LastBalanceTick)
	}

	e.markRemoved()
	if ce := e.observeBalance(now, &ledger.Balance{Balance: decimal.NewFromInt(5)}); ce != nil {
		t.Fatalf("removed entity must not report changes")
	}
	if d := e.describe(false); !d.LastObservedBalance.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("removed entity state must not change, got %s", d.LastObservedBalance)
	}
}

func TestEvaluateTransfers(t *testing.T) {
	e := newEntity("B", &Config{Mode: TransferWatch, ExpectedAmount: decimal.NewFromInt(75)}, time.Now())
	now := time.Now()

	events := []*ledger.TransferEvent{
		{Sequence: 101, Amount: decimal.NewFromInt(75)},
		{Sequence: 100, Amount: decimal.NewFromInt(50)},
		nil,
	}
	pending := e.pendingTransfers(events)
	if len(pending) != 2 || pending[0].Sequence != 100 || pending[1].Sequence != 101 {
		t.Fatalf("want pending events sorted as [100 101], got %v", pending)
	}

	var matches []*ChangeEvent
	for _, ev := range pending {
		ce, ok := e.evaluateTransfer(now, ev)
		if !ok {
			t.Fatalf("entity must not be removed")
		}
		if ce != nil {
			matches = append(matches, ce)
		}
	}
	if len(matches) != 1 || matches[0].Sequence != 101 {
		t.Fatalf("want one match at tick 101, got %v", matches)
	}
	if d := e.describe(false); d.LastProcessedSequence != 101 {
		t.Fatalf("want cursor 101, got %d", d.LastProcessedSequence)
	}

	// Same events are never evaluated again.
	if pending := e.pendingTransfers(events); len(pending) != 0 {
		t.Fatalf("want no pending events, got %d", len(pending))
	}

	// Events sharing a tick are all evaluated.
	events = []*ledger.TransferEvent{
		{Sequence: 200, Amount: decimal.NewFromInt(75)},
		{Sequence: 200, Amount: decimal.RequireFromString("75.00")},
		{Sequence: 150, Amount: decimal.RequireFromString("75.01")},
	}
	matches = matches[:0]
	for _, ev := range e.pendingTransfers(events) {
		if ce, _ := e.evaluateTransfer(now, ev); ce != nil {
			matches = append(matches, ce)
		}
	}
	if len(matches) != 2 {
		t.Fatalf("want 2 matches at tick 200, got %d", len(matches))
	}
	if d := e.describe(false); d.LastProcessedSequence != 200 {
		t.Fatalf("want cursor 200, got %d", d.LastProcessedSequence)
	}
}

func TestConfigCheck(t *testing.T) {
	opts := new(Options)
	opts.setDefaults()

	checks := []struct {
		cfg Config
		ok  bool
	}{
		{Config{}, true},
		{Config{Mode: TransferWatch}, false},
		{Config{Mode: TransferWatch, ExpectedAmount: decimal.NewFromInt(-1)}, false},
		{Config{ExpectedAmount: decimal.NewFromInt(10)}, true},
		{Config{CallbackURL: "example.com/hook"}, false},
		{Config{CallbackURL: "ftp://example.com/hook"}, false},
		{Config{CallbackURL: "https://example.com/hook"}, true},
		{Config{Mode: "Unknown"}, false},
	}
	for i, c := range checks {
		cfg := c.cfg
		cfg.setDefaults(opts)
		if err := cfg.check(opts); (err == nil) != c.ok {
			t.Fatalf("%d: want ok=%t, got err=%v", i, c.ok, err)
		}
	}

	cfg := &Config{ExpectedAmount: decimal.NewFromInt(10)}
	cfg.setDefaults(opts)
	if cfg.Mode != TransferWatch || cfg.PollInterval != 30*time.Second {
		t.Fatalf("want TransferWatch with 30s interval, got %s with %s", cfg.Mode, cfg.PollInterval)
	}
	cfg = &Config{}
	cfg.setDefaults(opts)
	if cfg.Mode != BalanceWatch || cfg.PollInterval != 5*time.Second {
		t.Fatalf("want BalanceWatch with 5s interval, got %s with %s", cfg.Mode, cfg.PollInterval)
	}

	strict := &Options{RequireDestination: true}
	strict.setDefaults()
	cfg = &Config{}
	cfg.setDefaults(strict)
	if err := cfg.check(strict); err == nil {
		t.Fatalf("want missing destination error, got nil")
	}
}
