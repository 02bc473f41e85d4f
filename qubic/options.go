// Copyright (c) 2025 BVK Chaitanya

package qubic

import (
	"fmt"
	"net/url"
	"time"
)

type Options struct {
	// RPCURL is the base url for the balances api.
	RPCURL string

	// APIBase is the base url for the transfer events api.
	APIBase string

	// HTTPTimeout holds the http client timeout for every request.
	HTTPTimeout time.Duration

	// RequestsPerSecond limits the rate of requests to the upstream servers
	// across all tracked entities.
	RequestsPerSecond float64
}

func (v *Options) setDefaults() {
	if len(v.RPCURL) == 0 {
		v.RPCURL = "https://rpc.qubic.org/v1"
	}
	if len(v.APIBase) == 0 {
		v.APIBase = "https://api.qubic.org"
	}
	if v.HTTPTimeout == 0 {
		v.HTTPTimeout = 30 * time.Second
	}
	if v.RequestsPerSecond == 0 {
		v.RequestsPerSecond = 10
	}
}

func (v *Options) Check() error {
	for _, s := range []string{v.RPCURL, v.APIBase} {
		u, err := url.Parse(s)
		if err != nil {
			return fmt.Errorf("could not parse url %q: %w", s, err)
		}
		if !u.IsAbs() {
			return fmt.Errorf("url %q must be absolute", s)
		}
	}
	if v.HTTPTimeout < 0 {
		return fmt.Errorf("http timeout cannot be negative")
	}
	if v.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative")
	}
	return nil
}
