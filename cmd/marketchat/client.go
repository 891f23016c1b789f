package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/marketchat/internal/app"
	"github.com/vovakirdan/marketchat/internal/core"
)

// runClient starts a signed-in client, runs fn, then stops everything.
func (o *rootOptions) runClient(cmd *cobra.Command, push bool, fn func(ctx context.Context, c *app.Client) error) error {
	cfg, logger, err := o.load()
	if err != nil {
		return err
	}
	c, err := app.NewClient(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	c.Start(ctx, push)
	err = fn(ctx, c)
	cancel()
	c.Wait()
	return err
}

// await consumes messenger events until match reports done or an error.
func await(ctx context.Context, m *core.Messenger, match func(ev *core.Event) (bool, error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-m.Events:
			if done, err := match(ev); done || err != nil {
				return err
			}
		}
	}
}

// failure returns the error of ev when it reports a failure of one of ops.
func failure(ev *core.Event, ops ...core.CommandKind) error {
	if ev.Kind != core.EventError || ev.Error == nil {
		return nil
	}
	for _, op := range ops {
		if ev.Op == op {
			return ev.Error
		}
	}
	return nil
}

// loadAll loads the session list, opening preferredID (or the first session),
// and returns the settled state.
func loadAll(ctx context.Context, m *core.Messenger, preferredID int64) (core.State, error) {
	if err := m.LoadSessions(preferredID); err != nil {
		return core.State{}, err
	}
	err := await(ctx, m, func(ev *core.Event) (bool, error) {
		if err := failure(ev, core.CommandLoadSessions, core.CommandSelectSession); err != nil {
			return true, err
		}
		switch ev.Kind {
		case core.EventSessionsLoaded:
			return len(ev.Sessions) == 0, nil
		case core.EventThreadLoaded:
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return core.State{}, err
	}
	return m.Snapshot(ctx)
}

// openThread loads sessionID's thread and makes it active.
func openThread(ctx context.Context, m *core.Messenger, sessionID int64) (core.State, error) {
	st, err := loadAll(ctx, m, sessionID)
	if err != nil {
		return st, err
	}
	if st.ActiveID != sessionID {
		return st, fmt.Errorf("session %d: %w", sessionID, core.ErrSessionNotFound)
	}
	return st, nil
}
