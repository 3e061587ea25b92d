package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/freshcart/shopmate/internal/config"
	"github.com/freshcart/shopmate/internal/llm"
	"github.com/freshcart/shopmate/internal/logging"
	"github.com/freshcart/shopmate/internal/relay"
	"github.com/freshcart/shopmate/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the edge relay server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath())
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Relay.Port = port
			}
			if bind != "" {
				cfg.Relay.Bind = bind
			}
			if logLevel == "" && cfg.Logging.Level != "" {
				log = logging.New(nil, cfg.Logging.Level)
			}

			if cfg.Provider.APIKey == "" {
				log.Warn().Msg("no provider API key configured — upstream requests will likely be rejected")
			}

			db, err := store.Open(cfg.Store.Path, log)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			client := llm.NewStreamClient(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Provider.Model, log)

			srv := relay.New(cfg, client, log,
				relay.WithSessionStore(store.NewSessionStore(db)),
			)

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override relay port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (auto, lan, loopback, custom)")

	return cmd
}
