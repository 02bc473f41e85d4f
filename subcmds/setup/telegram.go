// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/bvk/ledgerwatch/ctxutil"
	"github.com/bvk/ledgerwatch/telegram"
	"github.com/bvkgo/kv/kvmemdb"
	"github.com/visvasity/cli"
)

type Telegram struct {
	dataDir     string
	skipTesting bool

	ownerID  string
	adminID  string
	otherIDs string
	botToken string
}

func (c *Telegram) Purpose() string {
	return "Setup configures Telegram service API parameters"
}

func (c *Telegram) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("telegram", flag.ContinueOnError)
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.ownerID, "owner-id", "", "Owner's telegram user id")
	fset.StringVar(&c.adminID, "admin-id", "", "Administrator's telegram user id")
	fset.StringVar(&c.otherIDs, "other-ids", "", "Comma separated telegram user ids that also receive alerts")
	fset.StringVar(&c.botToken, "bot-token", "", "Telegram bot's authentication token (read from the terminal when empty)")
	fset.BoolVar(&c.skipTesting, "skip-testing", false, "don't test the parameters")
	return "telegram", fset, cli.CmdFunc(c.run)
}

func (c *Telegram) Description() string {
	return `

Command "telegram" helps users configure alerts to their Telegram account
through a Telegram bot. The bot also answers /tracked, /describe and /status
commands from the configured users.

Telegram configuration is optional. It can be configured as follows:

  $ ledgerwatch setup telegram --owner-id=username --bot-token=USCJS2...TVP4KV

`
}

func (c *Telegram) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}

	secretsPath, secrets, err := loadSecrets(c.dataDir)
	if err != nil {
		return err
	}

	if len(c.botToken) == 0 {
		token, err := readSecret("Telegram bot token: ")
		if err != nil {
			return err
		}
		c.botToken = strings.TrimSpace(token)
	}

	tsecrets := &telegram.Secrets{
		OwnerID:  c.ownerID,
		AdminID:  c.adminID,
		BotToken: c.botToken,
	}
	if len(c.otherIDs) != 0 {
		tsecrets.OtherIDs = strings.Split(c.otherIDs, ",")
	}
	if err := tsecrets.Check(); err != nil {
		return err
	}
	secrets.Telegram = tsecrets

	if !c.skipTesting {
		if err := waitForKey("Start a chat with telegram bot and then press any key"); err != nil {
			return err
		}

		client, err := telegram.New(ctx, kvmemdb.New(), secrets.Telegram)
		if err != nil {
			return err
		}
		defer client.Close()

		ctxutil.Sleep(ctx, time.Second)
		if err := client.SendMessage(ctx, time.Now(), "Test message from Telegram config setup; please ignore."); err != nil {
			return err
		}
	}

	return saveSecrets(secretsPath, secrets)
}
