// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"fmt"
	"time"

	"github.com/bvk/ledgerwatch/api"
	"github.com/bvk/ledgerwatch/tracker"
)

func (s *Server) doTrack(ctx context.Context, req *api.TrackRequest) (*api.TrackResponse, error) {
	if err := req.Check(); err != nil {
		return nil, err
	}
	cfg := &tracker.Config{
		CallbackURL:  req.CallbackURL,
		Broadcast:    req.Broadcast,
		PollInterval: time.Duration(req.IntervalMillis) * time.Millisecond,
	}
	if len(req.Mode) != 0 {
		mode, err := tracker.ParseMode(req.Mode)
		if err != nil {
			return nil, err
		}
		cfg.Mode = mode
	}
	if req.ExpectedAmount != nil {
		cfg.ExpectedAmount = *req.ExpectedAmount
	}
	d, err := s.tracker.Track(ctx, req.ID(), cfg)
	if err != nil {
		return nil, err
	}
	return &api.TrackResponse{Entity: toAPIEntity(d, time.Now())}, nil
}

func (s *Server) doUntrack(ctx context.Context, req *api.UntrackRequest) (*api.UntrackResponse, error) {
	if err := s.tracker.Untrack(ctx, req.AccountID); err != nil {
		return nil, err
	}
	resp := &api.UntrackResponse{
		AccountID: req.AccountID,
		Message:   fmt.Sprintf("Stopped tracking %s", req.AccountID),
	}
	return resp, nil
}

func (s *Server) doList(ctx context.Context, req *api.ListRequest) (*api.ListResponse, error) {
	now := time.Now()
	resp := &api.ListResponse{Entities: []*api.Entity{}}
	for _, d := range s.tracker.ListTracked() {
		resp.Entities = append(resp.Entities, toAPIEntity(d, now))
	}
	resp.Count = len(resp.Entities)
	return resp, nil
}

func (s *Server) doDescribe(ctx context.Context, req *api.DescribeRequest) (*api.DescribeResponse, error) {
	d, err := s.tracker.Describe(req.AccountID)
	if err != nil {
		return nil, err
	}
	resp := &api.DescribeResponse{
		Entity:  toAPIEntity(d, time.Now()),
		History: []*api.Change{},
	}
	for _, ce := range d.History {
		resp.History = append(resp.History, toAPIChange(d.Mode, ce))
	}
	return resp, nil
}

func toAPIEntity(d *tracker.Descriptor, now time.Time) *api.Entity {
	e := &api.Entity{
		AccountID:         d.ID,
		Mode:              string(d.Mode),
		CallbackURL:       d.CallbackURL,
		Broadcast:         d.Broadcast,
		IntervalMillis:    d.PollInterval.Milliseconds(),
		AddedAt:           d.CreatedAt,
		RunningFor:        now.Sub(d.CreatedAt).Truncate(time.Second).String(),
		CurrentBalance:    d.LastObservedBalance,
		LastBalanceTick:   d.LastBalanceTick,
		LastProcessedTick: d.LastProcessedSequence,
		LastPollError:     d.LastPollError,
	}
	if d.Mode == tracker.TransferWatch {
		amount := d.ExpectedAmount
		e.ExpectedAmount = &amount
	}
	if !d.LastPolledAt.IsZero() {
		at := d.LastPolledAt
		e.LastPolledAt = &at
	}
	return e
}

func toAPIChange(mode tracker.Mode, ce *tracker.ChangeEvent) *api.Change {
	c := &api.Change{Timestamp: ce.Timestamp}
	if mode == tracker.TransferWatch {
		amount := ce.Amount
		c.Tick, c.Amount = ce.Sequence, &amount
		return c
	}
	prev, cur, delta := ce.Previous, ce.Current, ce.Delta
	c.PreviousBalance, c.CurrentBalance, c.Change = &prev, &cur, &delta
	return c
}
