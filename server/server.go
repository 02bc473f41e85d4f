// Copyright (c) 2023 BVK Chaitanya

// Package server wires the tracker with its stores, notifiers and operator
// alert channels and exposes them over http.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bvk/ledgerwatch/api"
	"github.com/bvk/ledgerwatch/httputil"
	"github.com/bvk/ledgerwatch/ledger"
	"github.com/bvk/ledgerwatch/notify"
	"github.com/bvk/ledgerwatch/pushover"
	"github.com/bvk/ledgerwatch/telegram"
	"github.com/bvk/ledgerwatch/tracker"
	"github.com/bvkgo/kv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	opts Options

	db kv.Database

	secrets *Secrets

	startedAt time.Time

	tracker *tracker.Tracker

	broadcaster *notify.Broadcaster
	dispatcher  *notify.Dispatcher

	pushoverClient *pushover.Client
	telegramClient *telegram.Client
}

func New(secrets *Secrets, db kv.Database, client ledger.Client, opts *Options) (_ *Server, status error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	if secrets == nil {
		secrets = new(Secrets)
	}

	s := &Server{
		opts:        *opts,
		db:          db,
		secrets:     secrets,
		startedAt:   time.Now(),
		broadcaster: notify.NewBroadcaster(opts.SubscriberQueueSize),
	}
	s.dispatcher = notify.NewDispatcher(notify.NewWebhook(opts.WebhookTimeout), s.broadcaster)

	if secrets.Pushover != nil {
		client, err := pushover.New(secrets.Pushover, nil)
		if err != nil {
			return nil, fmt.Errorf("could not create pushover client: %w", err)
		}
		s.pushoverClient = client
		if !opts.NoAlerts {
			s.dispatcher.AddAlerter(client)
		}
	}

	var store tracker.Store
	if len(opts.StateFile) != 0 {
		store = tracker.NewFileStore(opts.StateFile)
	} else {
		store = tracker.NewKVStore(db, tracker.DefaultStateKey)
	}
	t, err := tracker.New(client, s.dispatcher, store, &opts.Tracker)
	if err != nil {
		return nil, err
	}
	s.tracker = t
	return s, nil
}

// Start connects to the telegram bot, if configured, and resumes tracking
// the saved entities.
func (s *Server) Start(ctx context.Context) error {
	if s.secrets.Telegram != nil && s.telegramClient == nil {
		client, err := telegram.New(ctx, s.db, s.secrets.Telegram)
		if err != nil {
			return fmt.Errorf("could not create telegram client: %w", err)
		}
		s.telegramClient = client
		if err := s.addTelegramCommands(ctx); err != nil {
			return err
		}
		if !s.opts.NoAlerts {
			s.dispatcher.AddAlerter(client)
		}
	}

	if err := s.tracker.Start(ctx); err != nil {
		return fmt.Errorf("could not restore tracked entities: %w", err)
	}
	s.SendMessage(ctx, time.Now(), "Ledgerwatch has started with %d tracked entities.", len(s.tracker.ListTracked()))
	return nil
}

// Stop stops all poll jobs and saves the registry.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.tracker.Close(); err != nil {
		return err
	}
	s.SendMessage(ctx, time.Now(), "Ledgerwatch is stopped.")
	return nil
}

func (s *Server) Close() error {
	s.tracker.Close()
	if s.telegramClient != nil {
		s.telegramClient.Close()
	}
	return nil
}

func (s *Server) Tracker() *tracker.Tracker {
	return s.tracker
}

func (s *Server) Broadcaster() *notify.Broadcaster {
	return s.broadcaster
}

// SendMessage sends a lifecycle message to the operator channels. Errors are
// logged and ignored.
func (s *Server) SendMessage(ctx context.Context, at time.Time, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if s.pushoverClient != nil {
		if err := s.pushoverClient.SendMessage(ctx, at, msg); err != nil {
			slog.Warn("could not send pushover message (ignored)", "err", err)
		}
	}
	if s.telegramClient != nil {
		if err := s.telegramClient.SendMessage(ctx, at, msg); err != nil {
			slog.Warn("could not send telegram message (ignored)", "err", err)
		}
	}
}

// HandlerMap returns the http handlers keyed by their url patterns.
func (s *Server) HandlerMap() map[string]http.Handler {
	return map[string]http.Handler{
		api.TrackPath:    httputil.JSONHandler(s.doTrack),
		api.UntrackPath:  httputil.JSONHandler(s.doUntrack),
		api.ListPath:     httputil.JSONHandler(s.doList),
		api.DescribePath: httputil.JSONHandler(s.doDescribe),
		api.StatusPath:   http.HandlerFunc(s.serveStatus),
		api.EventsPath:   http.HandlerFunc(s.serveEvents),
		"/metrics":       promhttp.Handler(),
	}
}
