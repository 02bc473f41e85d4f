// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"time"

	"github.com/bvk/ledgerwatch/tracker"
)

type Options struct {
	// StateFile, when non-empty, keeps the registry snapshot in a json file
	// instead of the database.
	StateFile string

	// WebhookTimeout limits a single webhook request.
	WebhookTimeout time.Duration

	// SubscriberQueueSize limits the undelivered events per live subscriber.
	SubscriberQueueSize int

	// NoAlerts disables operator alerts for every event; pushover and
	// telegram are still used for lifecycle messages.
	NoAlerts bool

	Tracker tracker.Options
}

func (v *Options) setDefaults() {
	if v.WebhookTimeout <= 0 {
		v.WebhookTimeout = 10 * time.Second
	}
	if v.SubscriberQueueSize <= 0 {
		v.SubscriberQueueSize = 100
	}
}

func (v *Options) Check() error {
	return nil
}
