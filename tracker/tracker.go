// Copyright (c) 2025 BVK Chaitanya

// Package tracker keeps a registry of ledger accounts and polls each account
// on its own schedule to detect balance changes and expected transfers.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/bvk/ledgerwatch/ctxutil"
	"github.com/bvk/ledgerwatch/gobs"
	"github.com/bvk/ledgerwatch/job"
	"github.com/bvk/ledgerwatch/ledger"
	"github.com/bvk/ledgerwatch/metrics"
	"github.com/bvk/ledgerwatch/notify"
)

type Options struct {
	// DefaultBalanceInterval is the poll interval for BalanceWatch entities
	// that don't specify one.
	DefaultBalanceInterval time.Duration

	// DefaultTransferInterval is the poll interval for TransferWatch entities
	// that don't specify one.
	DefaultTransferInterval time.Duration

	// DeliveryTimeout limits the time for delivering a single event.
	DeliveryTimeout time.Duration

	// SaveTimeout limits the time for writing a registry snapshot.
	SaveTimeout time.Duration

	// RequireDestination rejects BalanceWatch entities without a callback url
	// or broadcast.
	RequireDestination bool
}

func (v *Options) setDefaults() {
	if v.DefaultBalanceInterval <= 0 {
		v.DefaultBalanceInterval = 5 * time.Second
	}
	if v.DefaultTransferInterval <= 0 {
		v.DefaultTransferInterval = 30 * time.Second
	}
	if v.DeliveryTimeout <= 0 {
		v.DeliveryTimeout = 30 * time.Second
	}
	if v.SaveTimeout <= 0 {
		v.SaveTimeout = 10 * time.Second
	}
}

// Tracker is the registry of tracked entities. Every entity has exactly one
// poll job which runs until the entity is untracked or the tracker is closed.
type Tracker struct {
	cg ctxutil.CloseGroup

	opts Options

	client   ledger.Client
	notifier notify.Notifier
	store    Store

	now func() time.Time

	mu sync.Mutex

	entityMap map[string]*Entity

	// order holds the entity ids in insertion order.
	order []string

	persistCh chan struct{}
}

// New creates a tracker. Store can be nil, in which case the registry is not
// persisted.
func New(client ledger.Client, notifier notify.Notifier, store Store, opts *Options) (*Tracker, error) {
	if client == nil {
		return nil, fmt.Errorf("ledger client is required: %w", os.ErrInvalid)
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required: %w", os.ErrInvalid)
	}
	if opts == nil {
		opts = new(Options)
	}
	t := &Tracker{
		opts:      *opts,
		client:    client,
		notifier:  notifier,
		store:     store,
		now:       time.Now,
		entityMap: make(map[string]*Entity),
		persistCh: make(chan struct{}, 1),
	}
	t.opts.setDefaults()

	if store != nil {
		t.cg.Go(t.goPersist)
	}
	return t, nil
}

// Start restores the saved entities and starts their poll jobs. Entities that
// fail validation are logged and skipped.
func (t *Tracker) Start(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	state, err := t.store.Load(ctx)
	if err != nil {
		return err
	}
	for _, v := range state.Entities {
		cfg, err := configFromGob(v)
		if err != nil {
			slog.Error("could not restore saved entity (skipped)", "entity", v.ID, "err", err)
			continue
		}
		createdAt := v.CreatedAt
		if createdAt.IsZero() {
			createdAt = t.now()
		}
		if _, err := t.add(v.ID, cfg, createdAt); err != nil {
			slog.Error("could not restore saved entity (skipped)", "entity", v.ID, "err", err)
			continue
		}
	}
	slog.Info("restored saved entities", "count", len(t.ListTracked()))
	return nil
}

// Close cancels all poll jobs and waits for them to finish. Pending registry
// snapshot is written before Close returns.
func (t *Tracker) Close() error {
	t.mu.Lock()
	var jobs []*job.Job
	for _, id := range t.order {
		e := t.entityMap[id]
		e.job.Cancel()
		jobs = append(jobs, e.job)
	}
	t.mu.Unlock()

	for _, j := range jobs {
		j.Wait(context.Background())
	}
	t.cg.Close()
	return nil
}

// Track adds a new entity to the registry and starts polling it. Returns
// ErrAlreadyTracked if the id is already present. Nothing is added if the
// context is already canceled.
func (t *Tracker) Track(ctx context.Context, id string, cfg *Config) (*Descriptor, error) {
	if err := context.Cause(ctx); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = new(Config)
	}
	c := *cfg
	e, err := t.add(id, &c, t.now())
	if err != nil {
		return nil, err
	}
	slog.Info("started tracking entity", "entity", e, "interval", e.config.PollInterval, "callback", e.config.CallbackURL, "broadcast", e.config.Broadcast)
	t.schedulePersist()
	return e.describe(false), nil
}

func (t *Tracker) add(id string, cfg *Config, createdAt time.Time) (*Entity, error) {
	if len(id) == 0 {
		return nil, missingField("account id is required")
	}
	cfg.setDefaults(&t.opts)
	if err := cfg.check(&t.opts); err != nil {
		return nil, err
	}
	if err := context.Cause(t.cg.Context()); err != nil {
		return nil, fmt.Errorf("tracker is closed: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entityMap[id]; ok {
		return nil, fmt.Errorf("account %q: %w", id, ErrAlreadyTracked)
	}

	e := newEntity(id, cfg, createdAt)
	t.entityMap[id] = e
	t.order = append(t.order, id)
	e.job = job.Run(t.pollLoop(e), t.cg.Context())

	metrics.TrackedEntities.Set(float64(len(t.entityMap)))
	return e, nil
}

// Untrack removes an entity from the registry and stops its poll job. Results
// of an in-flight poll are discarded. Untrack waits for the in-flight poll to
// finish or the context to expire.
func (t *Tracker) Untrack(ctx context.Context, id string) error {
	t.mu.Lock()
	e, ok := t.entityMap[id]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("account %q: %w", id, ErrNotFound)
	}
	e.markRemoved()
	e.job.Cancel()
	delete(t.entityMap, id)
	t.order = slices.DeleteFunc(t.order, func(v string) bool { return v == id })
	metrics.TrackedEntities.Set(float64(len(t.entityMap)))
	t.mu.Unlock()

	slog.Info("stopped tracking entity", "entity", e)
	t.schedulePersist()

	if err := e.job.Wait(ctx); err != nil {
		slog.Warn("could not wait for the poll job to stop", "entity", e, "err", err)
	}
	return nil
}

// ListTracked returns descriptors for all entities in insertion order. Change
// history is not included.
func (t *Tracker) ListTracked() []*Descriptor {
	t.mu.Lock()
	entities := make([]*Entity, 0, len(t.order))
	for _, id := range t.order {
		entities = append(entities, t.entityMap[id])
	}
	t.mu.Unlock()

	var ds []*Descriptor
	for _, e := range entities {
		ds = append(ds, e.describe(false))
	}
	return ds
}

// Describe returns the descriptor of an entity along with its change history.
func (t *Tracker) Describe(id string) (*Descriptor, error) {
	t.mu.Lock()
	e, ok := t.entityMap[id]
	t.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("account %q: %w", id, ErrNotFound)
	}
	return e.describe(true), nil
}

func (t *Tracker) snapshot() *gobs.RegistryState {
	t.mu.Lock()
	defer t.mu.Unlock()

	state := &gobs.RegistryState{SavedAt: t.now()}
	for _, id := range t.order {
		state.Entities = append(state.Entities, t.entityMap[id].toGob())
	}
	return state
}

// schedulePersist requests a registry snapshot. Multiple requests are
// coalesced into a single write.
func (t *Tracker) schedulePersist() {
	if t.store == nil {
		return
	}
	select {
	case t.persistCh <- struct{}{}:
	default:
	}
}

func (t *Tracker) persist(ctx context.Context) error {
	sctx, scancel := context.WithTimeout(ctx, t.opts.SaveTimeout)
	defer scancel()

	if err := t.store.Save(sctx, t.snapshot()); err != nil {
		metrics.SnapshotErrors.Inc()
		slog.Error("could not save registry snapshot (ignored)", "err", err)
		return err
	}
	return nil
}

func (t *Tracker) goPersist(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			select {
			case <-t.persistCh:
				t.persist(context.Background())
			default:
			}
			return
		case <-t.persistCh:
			t.persist(context.WithoutCancel(ctx))
		}
	}
}
