package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/marketchat/internal/app"
)

func newDevServerCmd(opts *rootOptions) *cobra.Command {
	var addr, dbPath string

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run the reference messaging service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.DevServer.Addr = addr
			}
			if dbPath != "" {
				cfg.DevServer.DatabasePath = dbPath
			}

			server, err := app.NewDevServer(cfg.DevServer, logger)
			if err != nil {
				return err
			}
			if err := server.Run(cmd.Context()); err != nil {
				logger.Error().Err(err).Msg("devserver stopped with error")
				return err
			}
			logger.Info().Msg("devserver stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path")

	cmd.AddCommand(newProductCmd(opts, &dbPath))
	return cmd
}

// openDevStore opens the devserver database without listening.
func openDevStore(opts *rootOptions, dbPath string) (*app.DevServer, error) {
	cfg, logger, err := opts.load()
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DevServer.DatabasePath = dbPath
	}
	return app.NewDevServer(cfg.DevServer, logger)
}

func newProductCmd(opts *rootOptions, dbPath *string) *cobra.Command {
	var (
		sellerID                int64
		title, thumbnail, price string
	)

	cmd := &cobra.Command{
		Use:   "product",
		Short: "Create a listing in the devserver database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server, err := openDevStore(opts, *dbPath)
			if err != nil {
				return err
			}
			defer server.Close()

			product, err := server.Catalog().CreateProduct(cmd.Context(), sellerID, title, thumbnail, price)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "product %d\n", product.ID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&sellerID, "seller", 0, "seller user id")
	cmd.Flags().StringVar(&title, "title", "", "listing title")
	cmd.Flags().StringVar(&thumbnail, "thumbnail", "", "thumbnail URL")
	cmd.Flags().StringVar(&price, "price", "", "price, empty for none")
	_ = cmd.MarkFlagRequired("seller")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		dbPath           string
		nickname, avatar string
		userID           int64
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Create a member or issue a token for one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (nickname == "") == (userID == 0) {
				return fmt.Errorf("give either --nickname or --user-id")
			}
			server, err := openDevStore(opts, dbPath)
			if err != nil {
				return err
			}
			defer server.Close()

			if nickname != "" {
				user, token, err := server.Auth().CreateMember(cmd.Context(), nickname, avatar)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %d\n%s\n", user.ID, token)
				return nil
			}
			token, err := server.Auth().IssueToken(cmd.Context(), userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	cmd.Flags().StringVar(&nickname, "nickname", "", "create a member with this nickname")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar URL of the new member")
	cmd.Flags().Int64Var(&userID, "user-id", 0, "issue a token for an existing member")
	return cmd
}
