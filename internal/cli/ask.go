package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/freshcart/shopmate/internal/chat"
	"github.com/freshcart/shopmate/internal/config"
	"github.com/freshcart/shopmate/internal/llm"
	"github.com/freshcart/shopmate/internal/store"
)

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the shopping assistant a one-off question",
		Long:  "Runs one exchange against the provider directly, without the relay. Uses the catalog stored in the local database for prompt context and recommendation resolution.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath())
			if err != nil {
				return err
			}

			db, err := store.Open(cfg.Store.Path, log)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			catalog, err := store.NewCatalogStore(db).Snapshot()
			if err != nil {
				return err
			}
			if catalog.Len() == 0 {
				log.Warn().Msg("catalog is empty — run 'shopmate catalog import' to seed it")
			}

			client := llm.NewStreamClient(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Provider.Model, log)
			session := chat.NewSession(client, log)
			if _, err := session.Start(catalog, nil, nil, nil, nil); err != nil {
				return err
			}

			// Chunks arrive cumulatively; print only what is new.
			printed := 0
			res, err := session.Send(cmd.Context(), strings.Join(args, " "), nil, func(cumulative string) {
				if len(cumulative) > printed {
					fmt.Print(cumulative[printed:])
					printed = len(cumulative)
				}
			})
			if err != nil {
				return err
			}
			fmt.Println()

			for _, item := range res.Recommendations {
				fmt.Printf("  → %s (%.2f per %s)\n", item.Name, item.Price, item.Unit)
			}
			return nil
		},
	}
	return cmd
}
