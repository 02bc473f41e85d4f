// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/bvk/ledgerwatch/api"
	"github.com/bvk/ledgerwatch/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Describe struct {
	cmdutil.ClientFlags
}

func (c *Describe) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("describe", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return "describe", fset, cli.CmdFunc(c.run)
}

func (c *Describe) Purpose() string {
	return "Prints a watched account with its change history"
}

func (c *Describe) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (account-id) argument")
	}

	req := &api.DescribeRequest{AccountID: args[0]}
	resp, err := cmdutil.Post[api.DescribeResponse](ctx, &c.ClientFlags, api.DescribePath, req)
	if err != nil {
		return err
	}
	jsdata, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Fprintf(cli.Stdout(ctx), "%s\n", jsdata)
	return nil
}
