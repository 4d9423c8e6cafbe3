package system

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/bridgesphysio/bridges_backend/config"
	"github.com/bridgesphysio/bridges_backend/pkg/database"
)

func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create collections and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			client, db, err := database.Connect(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer client.Disconnect(context.Background())

			fmt.Println("Ensuring indexes...")
			if err := database.EnsureIndexes(ctx, db); err != nil {
				return fmt.Errorf("failed to ensure indexes: %w", err)
			}
			fmt.Println("Indexes ensured successfully.")
			return nil
		},
	}

	return cmd
}
