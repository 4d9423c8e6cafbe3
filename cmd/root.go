package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/bridgesphysio/bridges_backend/cmd/http"
	systemcmd "github.com/bridgesphysio/bridges_backend/cmd/system"
	"github.com/bridgesphysio/bridges_backend/pkg/logs"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "bridges",
	Short: "Practice management backend for Bridges Physiotherapy.",
	Long: `Bridges is the server side of a small-clinic practice management
application: patients, scheduling, billing, receipts and reporting behind a
role-gated JSON API.`,
}

func Execute() {
	// Fallback logger until a command reads config and installs the real one.
	slog.SetDefault(logs.Default())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
}
