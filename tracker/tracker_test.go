// Copyright (c) 2025 BVK Chaitanya

package tracker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bvk/ledgerwatch/idgen"
	"github.com/bvk/ledgerwatch/ledger"
	"github.com/bvk/ledgerwatch/notify"
	"github.com/bvkgo/kv/kvmemdb"
	"github.com/shopspring/decimal"
)

type fakeLedger struct {
	mu sync.Mutex

	balances map[string][]decimal.Decimal
	events   map[string][]*ledger.TransferEvent
	failures map[string]int

	balanceCalls  map[string]int
	transferCalls map[string]int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances:      make(map[string][]decimal.Decimal),
		events:        make(map[string][]*ledger.TransferEvent),
		failures:      make(map[string]int),
		balanceCalls:  make(map[string]int),
		transferCalls: make(map[string]int),
	}
}

func (f *fakeLedger) setBalances(id string, vs ...int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[id] = nil
	for _, v := range vs {
		f.balances[id] = append(f.balances[id], decimal.NewFromInt(v))
	}
}

func (f *fakeLedger) setEvents(id string, events ...*ledger.TransferEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[id] = events
}

func (f *fakeLedger) failNext(id string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[id] = n
}

func (f *fakeLedger) calls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balanceCalls[id] + f.transferCalls[id]
}

// FetchBalance returns the configured balances one after the other; the last
// balance repeats.
func (f *fakeLedger) FetchBalance(ctx context.Context, id string) (*ledger.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.balanceCalls[id]++
	if f.failures[id] > 0 {
		f.failures[id]--
		return nil, fmt.Errorf("upstream is down")
	}
	vs := f.balances[id]
	if len(vs) == 0 {
		return nil, os.ErrNotExist
	}
	b := &ledger.Balance{ID: id, Balance: vs[0], ValidForTick: uint64(f.balanceCalls[id])}
	if len(vs) > 1 {
		f.balances[id] = vs[1:]
	}
	return b, nil
}

func (f *fakeLedger) FetchTransferEvents(ctx context.Context, id string) ([]*ledger.TransferEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.transferCalls[id]++
	if f.failures[id] > 0 {
		f.failures[id]--
		return nil, fmt.Errorf("upstream is down")
	}
	return append([]*ledger.TransferEvent(nil), f.events[id]...), nil
}

type recorder struct {
	mu     sync.Mutex
	events []*notify.Event
	dests  []notify.Destination
	err    error
}

func (r *recorder) Deliver(ctx context.Context, dest notify.Destination, event *notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.dests = append(r.dests, dest)
	return r.err
}

func (r *recorder) list() []*notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*notify.Event(nil), r.events...)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition is not met in %s", timeout)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func newTestTracker(t *testing.T, client ledger.Client, n notify.Notifier, store Store) *Tracker {
	t.Helper()
	tr, err := New(client, n, store, &Options{DeliveryTimeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { tr.Close() })
	return tr
}

const testInterval = 10 * time.Millisecond

func TestBalanceWatch(t *testing.T) {
	ctx := context.Background()
	fake := newFakeLedger()
	fake.setBalances("A", 1000, 1200, 1200)
	rec := new(recorder)
	tr := newTestTracker(t, fake, rec, nil)

	cfg := &Config{Mode: BalanceWatch, CallbackURL: "http://localhost/hook", PollInterval: testInterval}
	if _, err := tr.Track(ctx, "A", cfg); err != nil {
		t.Fatal(err)
	}

	waitFor(t, 5*time.Second, func() bool { return len(rec.list()) > 0 })
	waitFor(t, 5*time.Second, func() bool { return fake.calls("A") >= 6 })

	events := rec.list()
	if len(events) != 1 {
		t.Fatalf("want exactly one notification, got %d", len(events))
	}
	ev := events[0]
	if ev.Kind != notify.BalanceChanged || ev.AccountID != "A" {
		t.Fatalf("want balance change event for A, got %s for %s", ev.Kind, ev.AccountID)
	}
	if !ev.PreviousBalance.Equal(decimal.NewFromInt(1000)) || !ev.CurrentBalance.Equal(decimal.NewFromInt(1200)) || !ev.Change.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("want 1000 -> 1200 (+200), got %s -> %s (%s)", ev.PreviousBalance, ev.CurrentBalance, ev.Change)
	}
	if rec.dests[0].CallbackURL != "http://localhost/hook" {
		t.Fatalf("want delivery to the callback url, got %q", rec.dests[0].CallbackURL)
	}

	d, err := tr.Describe("A")
	if err != nil {
		t.Fatal(err)
	}
	if len(d.History) != 1 {
		t.Fatalf("want one history entry, got %d", len(d.History))
	}
	if d.LastPolledAt.IsZero() || len(d.LastPollError) != 0 {
		t.Fatalf("want a successful poll, got %v at %s", d.LastPollError, d.LastPolledAt)
	}
}

func TestTransferWatch(t *testing.T) {
	ctx := context.Background()
	fake := newFakeLedger()
	fake.setEvents("B",
		&ledger.TransferEvent{Sequence: 100, Amount: decimal.NewFromInt(50)},
		&ledger.TransferEvent{Sequence: 101, Amount: decimal.NewFromInt(75), Raw: []byte(`{"tick":101,"amount":"75","txHash":"x"}`)},
	)
	rec := new(recorder)
	tr := newTestTracker(t, fake, rec, nil)

	cfg := &Config{
		Mode:           TransferWatch,
		CallbackURL:    "http://localhost/hook",
		PollInterval:   testInterval,
		ExpectedAmount: decimal.NewFromInt(75),
	}
	if _, err := tr.Track(ctx, "B", cfg); err != nil {
		t.Fatal(err)
	}

	waitFor(t, 5*time.Second, func() bool { return len(rec.list()) > 0 })
	waitFor(t, 5*time.Second, func() bool { return fake.calls("B") >= 5 })

	events := rec.list()
	if len(events) != 1 {
		t.Fatalf("want exactly one notification, got %d", len(events))
	}
	ev := events[0]
	if ev.Kind != notify.TransferMatched || ev.Identity != "B" || !ev.Success {
		t.Fatalf("want a successful transfer match for B, got %+v", ev)
	}
	if string(ev.Transaction) != `{"tick":101,"amount":"75","txHash":"x"}` {
		t.Fatalf("want the raw transaction in the event, got %s", ev.Transaction)
	}

	d, err := tr.Describe("B")
	if err != nil {
		t.Fatal(err)
	}
	if d.LastProcessedSequence != 101 {
		t.Fatalf("want cursor at 101, got %d", d.LastProcessedSequence)
	}

	// New events are evaluated in the following polls.
	fake.setEvents("B",
		&ledger.TransferEvent{Sequence: 101, Amount: decimal.NewFromInt(75)},
		&ledger.TransferEvent{Sequence: 102, Amount: decimal.NewFromInt(75)},
		&ledger.TransferEvent{Sequence: 102, Amount: decimal.NewFromInt(75)},
	)
	waitFor(t, 5*time.Second, func() bool { return len(rec.list()) >= 3 })
	calls := fake.calls("B")
	waitFor(t, 5*time.Second, func() bool { return fake.calls("B") >= calls+3 })
	events = rec.list()
	if n := len(events); n != 3 {
		t.Fatalf("want 3 notifications, got %d", n)
	}

	// Event ids are derived from the account, tick and position in the tick.
	if want := idgen.Derive(transferSeed("B", 101), 0).String(); events[0].ID != want {
		t.Fatalf("want event id %s, got %s", want, events[0].ID)
	}
	if a, b := events[1].ID, events[2].ID; a == b || a != idgen.Derive(transferSeed("B", 102), 0).String() {
		t.Fatalf("want distinct stable ids for same-tick events, got %s and %s", a, b)
	}
}

func TestTrackErrors(t *testing.T) {
	ctx := context.Background()
	fake := newFakeLedger()
	fake.setBalances("A", 10)
	tr := newTestTracker(t, fake, new(recorder), nil)

	if _, err := tr.Track(ctx, "", &Config{}); !errors.Is(err, ErrMissingRequiredField) {
		t.Fatalf("want ErrMissingRequiredField for empty id, got %v", err)
	}
	if _, err := tr.Track(ctx, "B", &Config{Mode: TransferWatch}); !errors.Is(err, ErrMissingRequiredField) {
		t.Fatalf("want ErrMissingRequiredField for missing amount, got %v", err)
	}
	if _, err := tr.Track(ctx, "B", &Config{CallbackURL: "not a url"}); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid for a bad callback, got %v", err)
	}
	if len(tr.ListTracked()) != 0 {
		t.Fatalf("failed adds must not change the registry")
	}

	if _, err := tr.Track(ctx, "A", &Config{PollInterval: time.Hour}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 5*time.Second, func() bool {
		d, _ := tr.Describe("A")
		return d.LastObservedBalance != nil
	})
	before, err := tr.Describe("A")
	if err != nil {
		t.Fatal(err)
	}

	dup := &Config{Broadcast: true, PollInterval: time.Minute, CallbackURL: "http://localhost/other"}
	if _, err := tr.Track(ctx, "A", dup); !errors.Is(err, ErrAlreadyTracked) || !errors.Is(err, os.ErrExist) {
		t.Fatalf("want ErrAlreadyTracked, got %v", err)
	}
	if len(tr.ListTracked()) != 1 {
		t.Fatalf("duplicate add must not change the registry")
	}
	after, err := tr.Describe("A")
	if err != nil {
		t.Fatal(err)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Fatalf("want createdAt %s, got %s", before.CreatedAt, after.CreatedAt)
	}
	if after.PollInterval != time.Hour || after.Broadcast || after.CallbackURL != "" {
		t.Fatalf("duplicate add must not change the config, got %+v", after)
	}
	if !after.LastObservedBalance.Equal(*before.LastObservedBalance) || !after.LastPolledAt.Equal(before.LastPolledAt) {
		t.Fatalf("duplicate add must not change the poll state, got %+v", after)
	}
	if n := fake.calls("A"); n != 1 {
		t.Fatalf("duplicate add must not start another poll job, got %d polls", n)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := tr.Track(canceled, "C", &Config{PollInterval: time.Hour}); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if _, err := tr.Describe("C"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("canceled add must not change the registry, got %v", err)
	}

	if err := tr.Untrack(ctx, "unknown"); !errors.Is(err, ErrNotFound) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := tr.Describe("unknown"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	// Ids are case sensitive.
	if _, err := tr.Track(ctx, "a", &Config{PollInterval: time.Hour}); err != nil {
		t.Fatalf("want a distinct entity for a different case, got %v", err)
	}
}

func TestListOrder(t *testing.T) {
	ctx := context.Background()
	fake := newFakeLedger()
	tr := newTestTracker(t, fake, new(recorder), nil)

	ids := []string{"C", "A", "B", "D"}
	for _, id := range ids {
		fake.setBalances(id, 1)
		if _, err := tr.Track(ctx, id, &Config{PollInterval: time.Hour}); err != nil {
			t.Fatal(err)
		}
	}
	if err := tr.Untrack(ctx, "A"); err != nil {
		t.Fatal(err)
	}
	want := []string{"C", "B", "D"}
	ds := tr.ListTracked()
	if len(ds) != len(want) {
		t.Fatalf("want %d entities, got %d", len(want), len(ds))
	}
	for i, d := range ds {
		if d.ID != want[i] {
			t.Fatalf("want %q at %d, got %q", want[i], i, d.ID)
		}
		if d.History != nil {
			t.Fatalf("list must not include history")
		}
	}
}

func TestUntrackStopsPolling(t *testing.T) {
	ctx := context.Background()
	fake := newFakeLedger()
	fake.setBalances("A", 1)
	tr := newTestTracker(t, fake, new(recorder), nil)

	if _, err := tr.Track(ctx, "A", &Config{PollInterval: testInterval}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 5*time.Second, func() bool { return fake.calls("A") >= 2 })

	if err := tr.Untrack(ctx, "A"); err != nil {
		t.Fatal(err)
	}
	calls := fake.calls("A")
	time.Sleep(10 * testInterval)
	if n := fake.calls("A"); n != calls {
		t.Fatalf("want no polls after untrack, got %d more", n-calls)
	}
	if len(tr.ListTracked()) != 0 {
		t.Fatalf("want empty registry")
	}
}

// blockingLedger blocks the second balance fetch until release is closed.
type blockingLedger struct {
	*fakeLedger

	polls    atomic.Int32
	entered  chan struct{}
	release  chan struct{}
	returned chan struct{}
}

func (b *blockingLedger) FetchBalance(ctx context.Context, id string) (*ledger.Balance, error) {
	if b.polls.Add(1) == 2 {
		close(b.entered)
		<-b.release
		defer close(b.returned)
	}
	return b.fakeLedger.FetchBalance(ctx, id)
}

func TestUntrackDiscardsInflightPoll(t *testing.T) {
	ctx := context.Background()
	fake := newFakeLedger()
	fake.setBalances("A", 1000, 2000)
	bl := &blockingLedger{
		fakeLedger: fake,
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
		returned:   make(chan struct{}),
	}
	rec := new(recorder)
	tr := newTestTracker(t, bl, rec, nil)

	if _, err := tr.Track(ctx, "A", &Config{Broadcast: true, PollInterval: testInterval}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-bl.entered:
	case <-time.After(5 * time.Second):
		t.Fatalf("second poll has not started")
	}

	uctx, ucancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer ucancel()
	if err := tr.Untrack(uctx, "A"); err != nil {
		t.Fatal(err)
	}

	close(bl.release)
	<-bl.returned
	time.Sleep(10 * testInterval)

	if n := len(rec.list()); n != 0 {
		t.Fatalf("want no notifications from a poll of an untracked entity, got %d", n)
	}
	if _, err := tr.Describe("A"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("in-flight poll must not resurrect the entity, got %v", err)
	}
	if n := bl.polls.Load(); n != 2 {
		t.Fatalf("want no polls after untrack, got %d total", n)
	}
}

func TestRetrackResetsState(t *testing.T) {
	ctx := context.Background()
	fake := newFakeLedger()
	fake.setBalances("A", 1000, 1200)
	rec := new(recorder)
	tr := newTestTracker(t, fake, rec, nil)

	cfg := &Config{Broadcast: true, PollInterval: testInterval}
	if _, err := tr.Track(ctx, "A", cfg); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 5*time.Second, func() bool { return len(rec.list()) == 1 })
	if err := tr.Untrack(ctx, "A"); err != nil {
		t.Fatal(err)
	}

	fake.setBalances("A", 5000)
	if _, err := tr.Track(ctx, "A", cfg); err != nil {
		t.Fatal(err)
	}
	calls := fake.calls("A")
	waitFor(t, 5*time.Second, func() bool { return fake.calls("A") >= calls+3 })

	if n := len(rec.list()); n != 1 {
		t.Fatalf("re-added entity must start with a fresh baseline, got %d notifications", n)
	}
	d, err := tr.Describe("A")
	if err != nil {
		t.Fatal(err)
	}
	if len(d.History) != 0 {
		t.Fatalf("re-added entity must start with empty history, got %d", len(d.History))
	}
	if !d.LastObservedBalance.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("want baseline 5000, got %s", d.LastObservedBalance)
	}
}

func TestUpstreamFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	fake := newFakeLedger()
	fake.setBalances("A", 1000)
	rec := new(recorder)
	tr := newTestTracker(t, fake, rec, nil)

	if _, err := tr.Track(ctx, "A", &Config{Broadcast: true, PollInterval: testInterval}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 5*time.Second, func() bool {
		d, _ := tr.Describe("A")
		return d.LastObservedBalance != nil
	})

	fake.failNext("A", 1000000)
	waitFor(t, 5*time.Second, func() bool {
		d, _ := tr.Describe("A")
		return len(d.LastPollError) != 0
	})
	d, _ := tr.Describe("A")
	if !d.LastObservedBalance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("failed polls must not change the baseline, got %s", d.LastObservedBalance)
	}

	fake.failNext("A", 0)
	fake.setBalances("A", 1500)
	waitFor(t, 5*time.Second, func() bool { return len(rec.list()) == 1 })
	ev := rec.list()[0]
	if !ev.Change.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("want change of 500 after recovery, got %s", ev.Change)
	}
}

func TestNoDestination(t *testing.T) {
	ctx := context.Background()
	fake := newFakeLedger()
	fake.setBalances("A", 1, 2)
	rec := new(recorder)
	tr := newTestTracker(t, fake, rec, nil)

	if _, err := tr.Track(ctx, "A", &Config{PollInterval: testInterval}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 5*time.Second, func() bool {
		d, _ := tr.Describe("A")
		return len(d.History) == 1
	})
	if n := len(rec.list()); n != 0 {
		t.Fatalf("want no deliveries without a destination, got %d", n)
	}
}

func TestDeliveryFailureIsNotRetried(t *testing.T) {
	ctx := context.Background()
	fake := newFakeLedger()
	fake.setEvents("B", &ledger.TransferEvent{Sequence: 7, Amount: decimal.NewFromInt(3)})
	rec := &recorder{err: fmt.Errorf("%w: connection refused", notify.ErrDeliveryFailed)}
	tr := newTestTracker(t, fake, rec, nil)

	cfg := &Config{CallbackURL: "http://localhost/hook", PollInterval: testInterval, ExpectedAmount: decimal.NewFromInt(3)}
	if _, err := tr.Track(ctx, "B", cfg); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 5*time.Second, func() bool { return fake.calls("B") >= 4 })

	if n := len(rec.list()); n != 1 {
		t.Fatalf("want exactly one delivery attempt, got %d", n)
	}
	d, _ := tr.Describe("B")
	if d.LastProcessedSequence != 7 {
		t.Fatalf("cursor must advance despite delivery failure, got %d", d.LastProcessedSequence)
	}
}

func TestIndependentEntities(t *testing.T) {
	ctx := context.Background()
	fake := newFakeLedger()
	fake.setBalances("A", 1)
	fake.setBalances("B", 1, 2)
	fake.failNext("A", 1000000)
	rec := new(recorder)
	tr := newTestTracker(t, fake, rec, nil)

	for _, id := range []string{"A", "B"} {
		if _, err := tr.Track(ctx, id, &Config{Broadcast: true, PollInterval: testInterval}); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, 5*time.Second, func() bool { return len(rec.list()) == 1 })
	if id := rec.list()[0].AccountID; id != "B" {
		t.Fatalf("want notification for B, got %q", id)
	}
}

func testRestore(t *testing.T, store Store) {
	ctx := context.Background()
	fake := newFakeLedger()
	fake.setBalances("A", 1)

	tr1, err := New(fake, new(recorder), store, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := tr1.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := tr1.Track(ctx, "A", &Config{CallbackURL: "http://localhost/a", PollInterval: time.Hour}); err != nil {
		t.Fatal(err)
	}
	if _, err := tr1.Track(ctx, "B", &Config{Broadcast: true, PollInterval: time.Hour, ExpectedAmount: decimal.RequireFromString("12.5")}); err != nil {
		t.Fatal(err)
	}
	if _, err := tr1.Track(ctx, "C", &Config{PollInterval: time.Hour}); err != nil {
		t.Fatal(err)
	}
	if err := tr1.Untrack(ctx, "C"); err != nil {
		t.Fatal(err)
	}
	tr1.Close()

	tr2, err := New(fake, new(recorder), store, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer tr2.Close()
	if err := tr2.Start(ctx); err != nil {
		t.Fatal(err)
	}

	ds := tr2.ListTracked()
	if len(ds) != 2 {
		t.Fatalf("want 2 restored entities, got %d", len(ds))
	}
	if ds[0].ID != "A" || ds[0].Mode != BalanceWatch || ds[0].CallbackURL != "http://localhost/a" || ds[0].PollInterval != time.Hour {
		t.Fatalf("unexpected restored entity %+v", ds[0])
	}
	if ds[1].ID != "B" || ds[1].Mode != TransferWatch || !ds[1].Broadcast || !ds[1].ExpectedAmount.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected restored entity %+v", ds[1])
	}
	if ds[1].LastProcessedSequence != 0 {
		t.Fatalf("poll state must not be restored")
	}
}

func TestRestoreKV(t *testing.T) {
	testRestore(t, NewKVStore(kvmemdb.New(), ""))
}

func TestRestoreFile(t *testing.T) {
	testRestore(t, NewFileStore(filepath.Join(t.TempDir(), "wallets.json")))
}

func TestLoadEmptyStore(t *testing.T) {
	ctx := context.Background()
	stores := []Store{
		NewKVStore(kvmemdb.New(), ""),
		NewFileStore(filepath.Join(t.TempDir(), "missing.json")),
	}
	for _, s := range stores {
		state, err := s.Load(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(state.Entities) != 0 {
			t.Fatalf("want empty state, got %d entities", len(state.Entities))
		}
	}
}

func TestLoadWalletsFile(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "wallets.json")
	wallets := `[
  {"identity": "A", "expectedAmount": 100, "callbackUrl": "http://localhost/hook", "interval": 60000},
  {"identity": "B", "expectedAmount": "2.5", "callbackUrl": "No especificado", "interval": 30000}
]`
	if err := os.WriteFile(file, []byte(wallets), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(file)
	tr := newTestTracker(t, newFakeLedger(), new(recorder), store)
	if err := tr.Start(ctx); err != nil {
		t.Fatal(err)
	}

	ds := tr.ListTracked()
	if len(ds) != 2 {
		t.Fatalf("want 2 restored entities, got %d", len(ds))
	}
	if ds[0].ID != "A" || ds[0].Mode != TransferWatch || !ds[0].ExpectedAmount.Equal(decimal.NewFromInt(100)) || ds[0].PollInterval != time.Minute || ds[0].CallbackURL != "http://localhost/hook" {
		t.Fatalf("unexpected restored entity %+v", ds[0])
	}
	if ds[1].ID != "B" || !ds[1].ExpectedAmount.Equal(decimal.RequireFromString("2.5")) || ds[1].CallbackURL != "" {
		t.Fatalf("unexpected restored entity %+v", ds[1])
	}

	// Saved files keep the top-level array layout.
	if err := store.Save(ctx, tr.snapshot()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 || data[0] != '[' {
		t.Fatalf("want a json array in the state file, got %q", data)
	}
	state, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Entities) != 2 || state.Entities[0].ID != "A" || state.Entities[1].ID != "B" {
		t.Fatalf("unexpected reloaded state %+v", state.Entities)
	}
}

func TestCorruptStateFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "wallets.json")
	if err := os.WriteFile(file, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(file).Load(context.Background()); !errors.Is(err, ErrPersistenceFailed) {
		t.Fatalf("want ErrPersistenceFailed, got %v", err)
	}
}
