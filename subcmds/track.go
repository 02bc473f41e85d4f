// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/bvk/ledgerwatch/api"
	"github.com/bvk/ledgerwatch/subcmds/cmdutil"
	"github.com/shopspring/decimal"
	"github.com/visvasity/cli"
)

type Track struct {
	cmdutil.ClientFlags

	mode           string
	callbackURL    string
	broadcast      bool
	interval       time.Duration
	expectedAmount string
}

func (c *Track) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("track", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.StringVar(&c.mode, "mode", "", "watch mode: balance or transfer (default is transfer when -expected-amount is set)")
	fset.StringVar(&c.callbackURL, "callback-url", "", "webhook url to receive the events")
	fset.BoolVar(&c.broadcast, "broadcast", false, "when true, events are published to the live subscribers")
	fset.DurationVar(&c.interval, "interval", 0, "poll interval (default depends on the mode)")
	fset.StringVar(&c.expectedAmount, "expected-amount", "", "transfer amount to wait for")
	return "track", fset, cli.CmdFunc(c.run)
}

func (c *Track) Purpose() string {
	return "Starts watching an account for balance changes or an expected transfer"
}

func (c *Track) Description() string {
	return `

Command "track" adds an account to the set of watched accounts. Balance watches
report every change in the account balance; transfer watches report incoming
transfers that exactly match the expected amount.

  $ ledgerwatch track -callback-url=https://example.com/hook BAJFDH...ACCOUNT
  $ ledgerwatch track -expected-amount=75 -broadcast BAJFDH...ACCOUNT

`
}

func (c *Track) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (account-id) argument")
	}
	if c.interval < 0 {
		return fmt.Errorf("interval cannot be negative")
	}

	req := &api.TrackRequest{
		AccountID:      args[0],
		Mode:           c.mode,
		CallbackURL:    c.callbackURL,
		Broadcast:      c.broadcast,
		IntervalMillis: c.interval.Milliseconds(),
	}
	if len(c.expectedAmount) != 0 {
		amount, err := decimal.NewFromString(c.expectedAmount)
		if err != nil {
			return fmt.Errorf("could not parse expected amount %q: %w", c.expectedAmount, err)
		}
		req.ExpectedAmount = &amount
	}
	if err := req.Check(); err != nil {
		return err
	}

	resp, err := cmdutil.Post[api.TrackResponse](ctx, &c.ClientFlags, api.TrackPath, req)
	if err != nil {
		return err
	}
	jsdata, _ := json.MarshalIndent(resp.Entity, "", "  ")
	fmt.Fprintf(cli.Stdout(ctx), "%s\n", jsdata)
	return nil
}
