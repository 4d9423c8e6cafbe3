package system

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/bridgesphysio/bridges_backend/config"
	"github.com/bridgesphysio/bridges_backend/internal/model"
	"github.com/bridgesphysio/bridges_backend/internal/service/counter"
	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
	"github.com/bridgesphysio/bridges_backend/pkg/database"
	"github.com/bridgesphysio/bridges_backend/pkg/util/password"
)

// NewSeedAdminCommand creates the first administrator account. Further staff
// accounts are created through the API by an admin.
func NewSeedAdminCommand() *cobra.Command {
	var username, email, pass, name string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the initial administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username = strings.TrimSpace(strings.ToLower(username))
			if username == "" || pass == "" {
				return fmt.Errorf("--username and --password are required")
			}

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

			users := db.Collection(model.ColUsers)
			count, err := users.CountDocuments(ctx, bson.M{"username": username})
			if err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("user %q already exists", username)
			}

			hash, err := password.HashWithCost(pass, cfg.Auth.BcryptCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}

			employeeID, err := counter.New(db).Next(ctx, model.CounterEmployeeID, 1)
			if err != nil {
				return fmt.Errorf("failed to allocate employee id: %w", err)
			}

			now := time.Now().UTC()
			admin := model.User{
				Name:          name,
				Username:      username,
				Password:      hash,
				Role:          string(authorize.RoleAdmin),
				EmployeeID:    employeeID,
				Administrator: true,
				Active:        true,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if email != "" {
				lower := strings.ToLower(email)
				admin.Email = &lower
			}

			if _, err := users.InsertOne(ctx, admin); err != nil {
				return fmt.Errorf("failed to insert admin: %w", err)
			}

			fmt.Printf("Administrator %q created (employee id %d).\n", username, employeeID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "login username")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&pass, "password", "", "initial password")
	cmd.Flags().StringVar(&name, "name", "", "display name")

	return cmd
}
