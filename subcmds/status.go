// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/bvk/ledgerwatch/api"
	"github.com/bvk/ledgerwatch/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Status struct {
	cmdutil.ClientFlags
}

func (c *Status) Purpose() string {
	return "Status prints the service process summary"
}

func (c *Status) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("status", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return "status", fset, cli.CmdFunc(c.run)
}

func (c *Status) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}

	resp, err := cmdutil.Get[api.StatusResponse](ctx, &c.ClientFlags, api.StatusPath)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.Stdout(ctx), 8, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "PID\t%d\n", resp.PID)
	fmt.Fprintf(tw, "Started At\t%s\n", resp.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(tw, "Uptime\t%s\n", resp.Uptime)
	fmt.Fprintf(tw, "Go Version\t%s\n", resp.GoVersion)
	fmt.Fprintf(tw, "Tracked\t%d\n", resp.NumTracked)
	fmt.Fprintf(tw, "Goroutines\t%d\n", resp.NumGoroutines)
	fmt.Fprintf(tw, "CPU\t%.2f%%\n", resp.CPUPercent)
	fmt.Fprintf(tw, "Memory\t%.2f%% (%d bytes RSS)\n", resp.MemoryPercent, resp.RSSBytes)
	if resp.NumThreads != 0 {
		fmt.Fprintf(tw, "Threads\t%d\n", resp.NumThreads)
	}
	if resp.NumFDs != 0 {
		fmt.Fprintf(tw, "Open Files\t%d\n", resp.NumFDs)
	}
	return tw.Flush()
}
