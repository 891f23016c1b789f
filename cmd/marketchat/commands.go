package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/marketchat/internal/app"
	"github.com/vovakirdan/marketchat/internal/core"
)

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", what, arg)
	}
	return id, nil
}

// listSessions reads the session list without opening any thread.
func listSessions(ctx context.Context, c *app.Client) (*core.SessionStore, error) {
	list, err := c.REST.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	previews := core.Previewer{Self: c.Self.UserID, Phrases: c.Phrases}
	for i := range list {
		list[i] = previews.Normalize(list[i])
	}
	sessions := core.NewSessionStore()
	sessions.Replace(list, 0)
	return sessions, nil
}

func newSessionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.runClient(cmd, false, func(ctx context.Context, c *app.Client) error {
				sessions, err := listSessions(ctx, c)
				if err != nil {
					return err
				}
				printSessions(cmd.OutOrStdout(), c.Phrases, sessions.List(), time.Now())
				return nil
			})
		},
	}
}

func newThreadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "thread <session-id>",
		Short: "Show the messages of a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := parseID(args[0], "session id")
			if err != nil {
				return err
			}
			return opts.runClient(cmd, false, func(ctx context.Context, c *app.Client) error {
				st, err := openThread(ctx, c.Messenger, sessionID)
				if err != nil {
					return err
				}
				printThread(cmd.OutOrStdout(), c, st, time.Now())
				return nil
			})
		},
	}
}

func newSendCmd(opts *rootOptions) *cobra.Command {
	var imagePath string

	cmd := &cobra.Command{
		Use:   "send <session-id> [text]",
		Short: "Send a text or image message",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := parseID(args[0], "session id")
			if err != nil {
				return err
			}
			text := ""
			if len(args) == 2 {
				text = args[1]
			}
			if (text == "") == (imagePath == "") {
				return fmt.Errorf("give either a text or --image")
			}

			return opts.runClient(cmd, false, func(ctx context.Context, c *app.Client) error {
				if _, err := openThread(ctx, c.Messenger, sessionID); err != nil {
					return err
				}
				msg, err := sendDraft(ctx, c.Messenger, text, imagePath)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "sent message %d\n", msg.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&imagePath, "image", "", "path of an image to send")
	return cmd
}

// sendDraft sends through the optimistic pipeline and waits for the outcome.
func sendDraft(ctx context.Context, m *core.Messenger, text, imagePath string) (core.Message, error) {
	var err error
	if imagePath != "" {
		err = m.SendImage("", imagePath)
	} else {
		err = m.SendText("", text)
	}
	if err != nil {
		return core.Message{}, err
	}

	var sent core.Message
	err = await(ctx, m, func(ev *core.Event) (bool, error) {
		if err := failure(ev, core.CommandSendText, core.CommandSendImage); err != nil {
			return true, err
		}
		if ev.Kind == core.EventMessageReconciled {
			sent = ev.Message
			return true, nil
		}
		return false, nil
	})
	return sent, err
}

func newRecallCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recall <session-id> <message-id>",
		Short: "Recall one of your recent messages",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := parseID(args[0], "session id")
			if err != nil {
				return err
			}
			messageID, err := parseID(args[1], "message id")
			if err != nil {
				return err
			}

			return opts.runClient(cmd, false, func(ctx context.Context, c *app.Client) error {
				if _, err := openThread(ctx, c.Messenger, sessionID); err != nil {
					return err
				}
				if err := c.Messenger.Recall(messageID); err != nil {
					return err
				}
				err := await(ctx, c.Messenger, func(ev *core.Event) (bool, error) {
					if err := failure(ev, core.CommandRecall); err != nil {
						return true, err
					}
					return ev.Kind == core.EventMessageRecalled && ev.Message.ID == messageID, nil
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "recalled message %d\n", messageID)
				return nil
			})
		},
	}
}

// markAllRead clears every unread counter and waits for the server to confirm.
func markAllRead(ctx context.Context, m *core.Messenger, open bool) error {
	var err error
	if open {
		err = m.OpenNotifications()
	} else {
		err = m.MarkAllRead()
	}
	if err != nil {
		return err
	}
	return await(ctx, m, func(ev *core.Event) (bool, error) {
		if err := failure(ev, core.CommandMarkAllRead); err != nil {
			return true, err
		}
		return ev.Kind == core.EventNotice && ev.Notice.Level == core.NoticeInfo, nil
	})
}

func newReadAllCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every conversation as read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.runClient(cmd, false, func(ctx context.Context, c *app.Client) error {
				if _, err := loadAll(ctx, c.Messenger, 0); err != nil {
					return err
				}
				if err := markAllRead(ctx, c.Messenger, false); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), c.Phrases.AllRead)
				return nil
			})
		},
	}
}

func newNotificationsCmd(opts *rootOptions) *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show the unread badge and notification feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.runClient(cmd, false, func(ctx context.Context, c *app.Client) error {
				sessions, err := listSessions(ctx, c)
				if err != nil {
					return err
				}
				feed := core.NewNotificationAggregator(sessions, c.Phrases)
				printFeed(cmd.OutOrStdout(), c.Phrases, feed.UnreadTotal(), feed.Feed(), time.Now())

				if !open || !feed.ShouldMarkRead() {
					return nil
				}
				st, err := loadAll(ctx, c.Messenger, 0)
				if err != nil {
					return err
				}
				if st.UnreadTotal == 0 {
					return nil
				}
				if err := markAllRead(ctx, c.Messenger, true); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), c.Phrases.AllRead)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "open the feed, marking everything read")
	return cmd
}

func newStartCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start <product-id>",
		Short: "Start a conversation about a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseID(args[0], "product id")
			if err != nil {
				return err
			}
			return opts.runClient(cmd, false, func(ctx context.Context, c *app.Client) error {
				if err := c.Messenger.StartChat(productID); err != nil {
					return err
				}
				var sessionID int64
				err := await(ctx, c.Messenger, func(ev *core.Event) (bool, error) {
					if err := failure(ev, core.CommandStartChat, core.CommandSelectSession); err != nil {
						return true, err
					}
					if ev.Kind == core.EventThreadLoaded {
						sessionID = ev.SessionID
						return true, nil
					}
					return false, nil
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "session %d\n", sessionID)
				return nil
			})
		},
	}
}

func newFavoritesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage favorite listings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List favorite listing ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.runClient(cmd, false, func(ctx context.Context, c *app.Client) error {
				ids, err := c.Favorites.Load(ctx)
				if err != nil {
					return err
				}
				parts := make([]string, 0, len(ids))
				for _, id := range ids {
					parts = append(parts, strconv.FormatInt(id, 10))
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(parts, " "))
				return nil
			})
		},
	})

	mutate := func(use, short string, add bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <product-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				productID, err := parseID(args[0], "product id")
				if err != nil {
					return err
				}
				return opts.runClient(cmd, false, func(ctx context.Context, c *app.Client) error {
					if _, err := c.Favorites.Load(ctx); err != nil {
						return err
					}
					if add {
						return c.Favorites.Add(ctx, productID)
					}
					return c.Favorites.Remove(ctx, productID)
				})
			},
		}
	}
	cmd.AddCommand(
		mutate("add", "Favorite a listing", true),
		mutate("remove", "Unfavorite a listing", false),
	)
	return cmd
}
