// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvk/ledgerwatch/api"
	"github.com/bvk/ledgerwatch/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Untrack struct {
	cmdutil.ClientFlags
}

func (c *Untrack) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("untrack", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return "untrack", fset, cli.CmdFunc(c.run)
}

func (c *Untrack) Purpose() string {
	return "Stops watching one or more accounts"
}

func (c *Untrack) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("command takes at least one (account-id) argument")
	}
	for _, id := range args {
		req := &api.UntrackRequest{AccountID: id}
		resp, err := cmdutil.Post[api.UntrackResponse](ctx, &c.ClientFlags, api.UntrackPath, req)
		if err != nil {
			return fmt.Errorf("could not untrack %q: %w", id, err)
		}
		fmt.Fprintln(cli.Stdout(ctx), resp.Message)
	}
	return nil
}
