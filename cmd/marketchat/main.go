package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/marketchat/internal/config"
	"github.com/vovakirdan/marketchat/internal/log"
)

type rootOptions struct {
	configPath string
	logLevel   string
	overrides  config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "marketchat",
		Short:         "Marketplace messaging client and reference server",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to marketchat.yaml")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.overrides.Token, "token", "", "bearer token of the signed-in member")
	flags.StringVar(&opts.overrides.APIURL, "api-url", "", "base URL of the messaging REST API")
	flags.StringVar(&opts.overrides.WSURL, "ws-url", "", "URL of the push feed")
	flags.StringVar(&opts.overrides.Locale, "locale", "", "phrase language (en, zh)")

	root.AddCommand(
		newSessionsCmd(opts),
		newThreadCmd(opts),
		newSendCmd(opts),
		newRecallCmd(opts),
		newReadAllCmd(opts),
		newNotificationsCmd(opts),
		newStartCmd(opts),
		newFavoritesCmd(opts),
		newChatCmd(opts),
		newWatchCmd(opts),
		newDevServerCmd(opts),
		newTokenCmd(opts),
	)
	return root
}

// load resolves configuration: defaults < file < env < flags.
func (o *rootOptions) load() (config.Config, *zerolog.Logger, error) {
	bootstrap := log.New(o.logLevel)
	cfg, path, err := config.Load(bootstrap, o.configPath)
	if err != nil {
		return cfg, bootstrap, err
	}
	cfg.UpdateFrom(o.overrides)
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	logger := log.New(cfg.LogLevel)
	logger.Debug().Str("config", path).Str("api_url", cfg.APIURL).Msg("configuration loaded")
	return cfg, logger, nil
}
