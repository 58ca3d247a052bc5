// reviewlens turns scraped bank app reviews into sentiment labels, themes
// and a customer experience report.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spacesedan/reviewlens/config"
	"github.com/spacesedan/reviewlens/internal/logging"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

var cfg config.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("[ReviewLens] Run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "reviewlens",
	Short:         "Sentiment and theme analysis for mobile banking app reviews",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnv(config.Env())

		level, _ := cmd.Flags().GetString("log-level")
		logging.InitLogger(level)

		configFile, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (YAML)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(preprocessCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(insightsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("reviewlens %s (%s)\n", version, commit)
	},
}

// pathFlag returns the flag value, or fallback when the flag is unset.
func pathFlag(cmd *cobra.Command, name, fallback string) string {
	if v, _ := cmd.Flags().GetString(name); v != "" {
		return v
	}
	return fallback
}
