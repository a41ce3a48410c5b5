// Command slurp is the Slurp Social command-line client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slurpsocial/internal/bootstrap"
	"slurpsocial/internal/config"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	apiURL       string
	outputFormat string
	noColor      bool

	rt  *bootstrap.Runtime
	out *printer
)

var rootCmd = &cobra.Command{
	Use:   "slurp",
	Short: "Slurp Social - share and discover ramen reviews",
	Long: `slurp talks to the Slurp Social API: sign in, browse the feed, post reviews,
like and comment, and download post images.

Configuration comes from config.yml, .env, and the environment
(API_BASE_URL, SESSION_STORE, REDIS_URL, ...).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPrinter(cmd.OutOrStdout(), outputFormat, noColor)
		if err != nil {
			return err
		}
		out = p

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if apiURL != "" {
			cfg.APIBaseURL = apiURL
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		rt, err = bootstrap.InitRuntime(cmd.Context(), cfg)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeRuntime()
	},
}

func closeRuntime() error {
	if rt == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := rt.Close(ctx)
	rt = nil
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (overrides API_BASE_URL)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", formatText, "Output format: text, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	// PostRun is skipped when a command fails.
	if closeErr := closeRuntime(); err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
