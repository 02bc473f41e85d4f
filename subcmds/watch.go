// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bvk/ledgerwatch/api"
	"github.com/bvk/ledgerwatch/notify"
	"github.com/bvk/ledgerwatch/subcmds/cmdutil"
	ws "github.com/gorilla/websocket"
	"github.com/visvasity/cli"
)

type Watch struct {
	cmdutil.ClientFlags

	account string
}

func (c *Watch) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("watch", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.StringVar(&c.account, "account", "", "when non-empty, prints events only for this account")
	return "watch", fset, cli.CmdFunc(c.run)
}

func (c *Watch) Purpose() string {
	return "Prints broadcast events as they happen"
}

func (c *Watch) Description() string {
	return `

Command "watch" subscribes to the live event stream and prints every event
published for accounts tracked with the broadcast option, one json object per
line, until interrupted.

`
}

func (c *Watch) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}

	u := c.ClientFlags.WebsocketURL(api.EventsPath)
	if len(c.account) != 0 {
		u.RawQuery = url.Values{"account": []string{c.account}}.Encode()
	}

	dialer := *ws.DefaultDialer
	dialer.HandshakeTimeout = c.ClientFlags.HTTPTimeout
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return fmt.Errorf("could not connect to %s: http status code %d: %w", u, resp.StatusCode, err)
		}
		return fmt.Errorf("could not connect to %s: %w", u, err)
	}
	defer conn.Close()

	stopf := context.AfterFunc(ctx, func() { conn.Close() })
	defer stopf()

	stdout := cli.Stdout(ctx)
	for ctx.Err() == nil {
		event := new(notify.Event)
		if err := conn.ReadJSON(event); err != nil {
			if ctx.Err() != nil || ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("could not read event: %w", err)
		}
		jsdata, _ := json.Marshal(event)
		fmt.Fprintf(stdout, "%s\n", jsdata)
	}
	return nil
}
