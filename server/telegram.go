// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"fmt"
	"time"

	"github.com/bvk/ledgerwatch/telegram"
	"github.com/visvasity/cli"
)

func (s *Server) AddTelegramCommand(ctx context.Context, name, purpose string, handler telegram.CmdFunc) error {
	if s.telegramClient != nil {
		return s.telegramClient.AddCommand(ctx, name, purpose, handler)
	}
	return nil // Ignored
}

func (s *Server) addTelegramCommands(ctx context.Context) error {
	cmds := []struct {
		name, purpose string
		handler       telegram.CmdFunc
	}{
		{"tracked", "Lists the tracked accounts", s.trackedTelegramCmd},
		{"describe", "Prints the state and history of an account", s.describeTelegramCmd},
		{"status", "Prints the process status", s.statusTelegramCmd},
	}
	for _, c := range cmds {
		if err := s.AddTelegramCommand(ctx, c.name, c.purpose, c.handler); err != nil {
			return fmt.Errorf("could not add telegram command %q: %w", c.name, err)
		}
	}
	return nil
}

func (s *Server) trackedTelegramCmd(ctx context.Context, args []string) error {
	stdout := cli.Stdout(ctx)
	ds := s.tracker.ListTracked()
	if len(ds) == 0 {
		fmt.Fprintln(stdout, "No accounts are tracked.")
		return nil
	}
	now := time.Now()
	for _, d := range ds {
		e := toAPIEntity(d, now)
		balance := "unknown"
		if e.CurrentBalance != nil {
			balance = e.CurrentBalance.String()
		}
		fmt.Fprintf(stdout, "%s %s balance=%s every=%s for=%s\n", e.Mode, e.AccountID, balance, d.PollInterval, e.RunningFor)
	}
	return nil
}

func (s *Server) describeTelegramCmd(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one account id argument")
	}
	stdout := cli.Stdout(ctx)
	d, err := s.tracker.Describe(args[0])
	if err != nil {
		return err
	}
	e := toAPIEntity(d, time.Now())
	fmt.Fprintf(stdout, "Account: %s\nMode: %s\nRunning for: %s\n", e.AccountID, e.Mode, e.RunningFor)
	if e.CurrentBalance != nil {
		fmt.Fprintf(stdout, "Balance: %s (tick %d)\n", e.CurrentBalance, e.LastBalanceTick)
	}
	if e.ExpectedAmount != nil {
		fmt.Fprintf(stdout, "Expected amount: %s (last tick %d)\n", e.ExpectedAmount, e.LastProcessedTick)
	}
	if len(e.LastPollError) != 0 {
		fmt.Fprintf(stdout, "Last poll error: %s\n", e.LastPollError)
	}
	for _, ce := range d.History {
		c := toAPIChange(d.Mode, ce)
		if c.Amount != nil {
			fmt.Fprintf(stdout, "%s tick %d amount %s\n", c.Timestamp.Format(time.DateTime), c.Tick, c.Amount)
			continue
		}
		fmt.Fprintf(stdout, "%s %s -> %s (%s)\n", c.Timestamp.Format(time.DateTime), c.PreviousBalance, c.CurrentBalance, c.Change)
	}
	return nil
}

func (s *Server) statusTelegramCmd(ctx context.Context, args []string) error {
	stdout := cli.Stdout(ctx)
	st := s.Status(ctx)
	fmt.Fprintf(stdout, "Uptime: %s\nTracked: %d\nGoroutines: %d\nCPU: %.2f%%\nRSS: %d bytes\n",
		st.Uptime, st.NumTracked, st.NumGoroutines, st.CPUPercent, st.RSSBytes)
	return nil
}
