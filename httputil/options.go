// Copyright (c) 2023 BVK Chaitanya

package httputil

import (
	"fmt"
	"os"
	"time"
)

type Options struct {
	// ServerCheckTimeout holds the http client timeout when checking for the
	// http server initialization.
	ServerCheckTimeout time.Duration

	// ServerCheckRetryInterval holds the amount of time to wait to check for
	// the http server readiness.
	ServerCheckRetryInterval time.Duration

	// ReadHeaderTimeout limits the time to read request headers.
	ReadHeaderTimeout time.Duration

	// ShutdownTimeout limits the time Stop waits for in-flight requests
	// before closing the connections forcibly. Websocket streams are not
	// waited for.
	ShutdownTimeout time.Duration
}

func (v *Options) setDefaults() {
	if v.ServerCheckTimeout == 0 {
		v.ServerCheckTimeout = 10 * time.Second
	}
	if v.ServerCheckRetryInterval == 0 {
		v.ServerCheckRetryInterval = time.Second
	}
	if v.ReadHeaderTimeout == 0 {
		v.ReadHeaderTimeout = 10 * time.Second
	}
	if v.ShutdownTimeout == 0 {
		v.ShutdownTimeout = 5 * time.Second
	}
}

func (v *Options) Check() error {
	if v.ServerCheckTimeout < 0 || v.ServerCheckRetryInterval < 0 {
		return fmt.Errorf("server check timeouts cannot be negative: %w", os.ErrInvalid)
	}
	if v.ReadHeaderTimeout < 0 {
		return fmt.Errorf("read header timeout cannot be negative: %w", os.ErrInvalid)
	}
	if v.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown timeout cannot be negative: %w", os.ErrInvalid)
	}
	return nil
}
