package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/freshcart/shopmate/internal/config"
	"github.com/freshcart/shopmate/internal/domain"
	"github.com/freshcart/shopmate/internal/store"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the stored product catalog",
	}
	cmd.AddCommand(newCatalogImportCmd())
	cmd.AddCommand(newCatalogListCmd())
	return cmd
}

func newCatalogImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <items.json>",
		Short: "Import catalog items from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var items []domain.CatalogItem
			if err := json.Unmarshal(data, &items); err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}

			cfg, err := config.Load(configPath())
			if err != nil {
				return err
			}
			db, err := store.Open(cfg.Store.Path, log)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			if err := store.NewCatalogStore(db).Seed(items); err != nil {
				return err
			}
			fmt.Printf("imported %d catalog items\n", len(items))
			return nil
		},
	}
}

func newCatalogListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored catalog items",
		Args:  cobra.NoArgs,
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
			for _, it := range catalog.Items() {
				fmt.Printf("%-12s %-28s %8.2f/%-6s stock %d\n", it.ID, it.Name, it.Price, it.Unit, it.Stock)
			}
			return nil
		},
	}
}
