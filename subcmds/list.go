// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/bvk/ledgerwatch/api"
	"github.com/bvk/ledgerwatch/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type List struct {
	cmdutil.ClientFlags

	printJSON bool
}

func (c *List) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("list", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.BoolVar(&c.printJSON, "json", false, "when true, prints the response in json format")
	return "list", fset, cli.CmdFunc(c.run)
}

func (c *List) Purpose() string {
	return "Prints all watched accounts"
}

func (c *List) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}

	req := &api.ListRequest{}
	resp, err := cmdutil.Post[api.ListResponse](ctx, &c.ClientFlags, api.ListPath, req)
	if err != nil {
		return err
	}

	stdout := cli.Stdout(ctx)
	if c.printJSON {
		jsdata, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Fprintf(stdout, "%s\n", jsdata)
		return nil
	}

	tw := tabwriter.NewWriter(stdout, 8, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Account\tMode\tDestination\tInterval\tBalance\tRunning For\tLast Error\n")
	for _, e := range resp.Entities {
		balance := "unknown"
		if e.CurrentBalance != nil {
			balance = e.CurrentBalance.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", e.AccountID, e.Mode, destinationString(e),
			time.Duration(e.IntervalMillis)*time.Millisecond, balance, e.RunningFor, e.LastPollError)
	}
	tw.Flush()
	fmt.Fprintf(stdout, "\n%d account(s) watched\n", resp.Count)
	return nil
}

func destinationString(e *api.Entity) string {
	switch {
	case len(e.CallbackURL) != 0 && e.Broadcast:
		return e.CallbackURL + " +broadcast"
	case len(e.CallbackURL) != 0:
		return e.CallbackURL
	case e.Broadcast:
		return "broadcast"
	}
	return "-"
}
