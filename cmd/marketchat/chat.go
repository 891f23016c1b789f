package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/marketchat/internal/app"
	"github.com/vovakirdan/marketchat/internal/core"
)

const chatHelp = `commands:
  /list              list conversations
  /open <id>         switch conversation
  /recall <id>       recall one of your messages
  /image <path>      send an image
  /read              mark everything read
  /start <listing>   chat about a listing
  /fav <listing>     toggle a favorite
  /quit              leave
anything else is sent as text`

func newChatCmd(opts *rootOptions) *cobra.Command {
	var sessionID int64

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive messenger with live push updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.runClient(cmd, true, func(ctx context.Context, c *app.Client) error {
				out := cmd.OutOrStdout()

				st, err := loadAll(ctx, c.Messenger, sessionID)
				if err != nil {
					return err
				}
				printSessions(out, c.Phrases, st.Sessions, time.Now())
				printThread(out, c, st, time.Now())
				fmt.Fprintln(out, chatHelp)

				go func() {
					for {
						select {
						case <-ctx.Done():
							return
						case ev := <-c.Messenger.Events:
							printEvent(out, c, ev)
						}
					}
				}()

				return repl(ctx, cmd.InOrStdin(), out, c)
			})
		},
	}
	cmd.Flags().Int64Var(&sessionID, "session", 0, "conversation to open first")
	return cmd
}

// repl reads lines until /quit, end of input or cancellation.
func repl(ctx context.Context, in io.Reader, out io.Writer, c *app.Client) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := dispatch(ctx, out, c, strings.TrimSpace(line))
			if err != nil {
				fmt.Fprintf(out, "! %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

func dispatch(ctx context.Context, out io.Writer, c *app.Client, line string) (bool, error) {
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, "/") {
		return false, c.Messenger.SendText("", line)
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	m := c.Messenger

	switch name {
	case "/quit":
		return true, nil
	case "/help":
		fmt.Fprintln(out, chatHelp)
		return false, nil
	case "/list":
		st, err := m.Snapshot(ctx)
		if err != nil {
			return false, err
		}
		printSessions(out, c.Phrases, st.Sessions, time.Now())
		return false, nil
	case "/read":
		return false, m.MarkAllRead()
	case "/image":
		if arg == "" {
			return false, fmt.Errorf("usage: /image <path>")
		}
		return false, m.SendImage("", arg)
	}

	id, err := parseID(arg, "id")
	if err != nil {
		return false, err
	}
	switch name {
	case "/open":
		return false, m.Select(id)
	case "/recall":
		return false, m.Recall(id)
	case "/start":
		return false, m.StartChat(id)
	case "/fav":
		if _, err := c.Favorites.Load(ctx); err != nil {
			return false, err
		}
		present, err := c.Favorites.Toggle(ctx, id)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "* listing %d favorite: %t\n", id, present)
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %s", name)
	}
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print pushed messages and recalls until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.runClient(cmd, true, func(ctx context.Context, c *app.Client) error {
				out := cmd.OutOrStdout()
				if _, err := loadAll(ctx, c.Messenger, 0); err != nil {
					return err
				}
				for {
					select {
					case <-ctx.Done():
						return nil
					case ev := <-c.Messenger.Events:
						switch ev.Kind {
						case core.EventPreviewPatched, core.EventMessageReceived, core.EventMessageRecalled, core.EventUnreadChanged:
							printEvent(out, c, ev)
						}
					}
				}
			})
		},
	}
}
