// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/visvasity/cli"
)

// maxMessageSize is the telegram limit for a single text message.
const maxMessageSize = 4096

var start = time.Now()

// parseCommand returns the command name and arguments from a bot command
// message like "/describe ABC".
func parseCommand(msg *models.Message) (string, []string, error) {
	if msg == nil || len(msg.Entities) == 0 || len(msg.Text) == 0 {
		return "", nil, os.ErrInvalid
	}
	entity := msg.Entities[0]
	if entity.Type != models.MessageEntityTypeBotCommand || entity.Offset != 0 {
		return "", nil, os.ErrInvalid
	}
	if msg.Text[0] != '/' || entity.Length > len(msg.Text) {
		return "", nil, os.ErrInvalid
	}
	cmd := msg.Text[1:entity.Length]
	// Commands in group chats are suffixed with the bot name.
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	args := strings.Fields(strings.TrimSpace(msg.Text[entity.Length:]))
	return cmd, args, nil
}

func (c *Client) respond(ctx context.Context, update *models.Update) (status error) {
	True := true

	var reply string
	defer func() {
		for _, part := range splitMessage(reply, maxMessageSize) {
			p := &bot.SendMessageParams{
				ChatID: update.Message.Chat.ID,
				Text:   part,
				ReplyParameters: &models.ReplyParameters{
					MessageID: update.Message.ID,
				},
				LinkPreviewOptions: &models.LinkPreviewOptions{
					IsDisabled: &True,
				},
			}
			if _, err := c.bot.SendMessage(ctx, p); err != nil {
				status = err
				return
			}
		}
	}()

	defer func() {
		if status != nil {
			reply = status.Error()
			status = nil
		}
	}()

	cmd, args, err := parseCommand(update.Message)
	if err != nil {
		return err
	}
	cdata, ok := c.commandMap.Load(cmd)
	if !ok {
		return fmt.Errorf("unknown command %q: %w", cmd, os.ErrNotExist)
	}

	var sb strings.Builder
	if err := cdata.Handler(cli.WithStdout(ctx, &sb), args); err != nil {
		slog.Error("could not handle user command (ignored)", "cmd", cmd, "user", update.Message.From.Username, "err", err)
		return err
	}
	reply = sb.String()
	if len(reply) == 0 {
		reply = "OK"
	}
	return nil
}

// splitMessage splits the text into parts of at most limit bytes, preferring
// line boundaries.
func splitMessage(text string, limit int) []string {
	var parts []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n')
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		parts = append(parts, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if len(text) != 0 {
		parts = append(parts, text)
	}
	return parts
}

func uptime(ctx context.Context, args []string) error {
	stdout := cli.Stdout(ctx)
	const day = 24 * time.Hour
	d := time.Since(start).Truncate(time.Second)
	if d < day {
		fmt.Fprintf(stdout, "%v", d)
		return nil
	}
	fmt.Fprintf(stdout, "%dd%v", d/day, d%day)
	return nil
}

func version(ctx context.Context, _ []string) error {
	stdout := cli.Stdout(ctx)
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return fmt.Errorf("could not read build information")
	}
	// Dependency versions can overflow the message size limits.
	fmt.Fprintln(stdout, "Go: ", info.GoVersion)
	fmt.Fprintln(stdout, "Main Module Path: ", info.Main.Path)
	fmt.Fprintln(stdout, "Main Module Version: ", info.Main.Version)
	for _, s := range info.Settings {
		if strings.HasPrefix(s.Key, "vcs.") {
			fmt.Fprintln(stdout, s.Key, ": ", s.Value)
		}
	}
	return nil
}
