// Copyright (c) 2025 BVK Chaitanya

// Package qubic implements ledger.Client over the public Qubic http apis.
package qubic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/bvk/ledgerwatch/ledger"
	"golang.org/x/time/rate"
)

// ErrTooManyRequests is returned when the upstream rejects a request with
// http status 429. Callers retry on their own schedule.
var ErrTooManyRequests = errors.New("too many requests")

type Client struct {
	opts Options

	rpcURL  *url.URL
	apiBase *url.URL

	client  *http.Client
	limiter *rate.Limiter
}

var _ ledger.Client = &Client{}

func New(opts *Options) (*Client, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	rpcURL, _ := url.Parse(opts.RPCURL)
	apiBase, _ := url.Parse(opts.APIBase)
	c := &Client{
		opts:    *opts,
		rpcURL:  rpcURL,
		apiBase: apiBase,
		client: &http.Client{
			Timeout: opts.HTTPTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}
	return c, nil
}

// FetchBalance returns the current balance of an account.
func (c *Client) FetchBalance(ctx context.Context, id string) (*ledger.Balance, error) {
	u := c.rpcURL.JoinPath("balances", id)

	type Response struct {
		Balance *ledger.Balance `json:"balance"`
	}
	resp := new(Response)
	if err := c.getJSON(ctx, u, resp); err != nil {
		return nil, fmt.Errorf("could not fetch balance for %q: %w", id, err)
	}
	if resp.Balance == nil {
		return nil, fmt.Errorf("balance response for %q has no balance field", id)
	}
	if len(resp.Balance.ID) == 0 {
		resp.Balance.ID = id
	}
	return resp.Balance, nil
}

// FetchTransferEvents returns all transfer events known to the upstream for
// an account. Events are returned in the upstream order.
func (c *Client) FetchTransferEvents(ctx context.Context, id string) ([]*ledger.TransferEvent, error) {
	u := c.apiBase.JoinPath("gotr", "api", "v1", "entities", id, "events", "qu-transfers")

	type Response struct {
		Events []*ledger.TransferEvent `json:"events"`
	}
	resp := new(Response)
	if err := c.getJSON(ctx, u, resp); err != nil {
		return nil, fmt.Errorf("could not fetch transfer events for %q: %w", id, err)
	}
	return resp.Events, nil
}

func (c *Client) getJSON(ctx context.Context, u *url.URL, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("could not create http get request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		slog.Warn("get request returned with status code 429 - too many requests", "url", u, "retry-after", resp.Header.Get("Retry-After"))
		return fmt.Errorf("http GET %s: %w", u, ErrTooManyRequests)
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("http GET %s returned %d: %s", u, resp.StatusCode, data)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty response body from %s", u)
		}
		return fmt.Errorf("could not json-decode response from %s: %w", u, err)
	}
	return nil
}
