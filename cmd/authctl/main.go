// Package main provides the authctl binary, a command line client for
// the authentication backend: sign in and out, inspect the current
// session, manage users, and browse the product catalog.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/authware/authware-go/config"
)

const Version = "0.1.0"

var (
	flagConfig   string
	flagEndpoint string
	flagVerbose  bool
)

func main() {
	root := &cobra.Command{
		Use:           "authctl",
		Short:         "Command line client for the authentication backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&flagEndpoint, "endpoint", "", "backend base URL (overrides config)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newRegisterCmd(),
		newUsersCmd(),
		newProductsCmd(),
		newConfigCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves the layered configuration plus command line
// overrides.
func loadConfig() (*config.Config, *slog.Logger, error) {
	logger := newLogger(flagVerbose)

	cfg, err := config.NewLoader(logger).Load(flagConfig)
	if err != nil {
		// Endpoint may still arrive via flag; retry validation with it.
		if flagEndpoint == "" {
			return nil, nil, err
		}
		cfg = config.DefaultConfig()
	}
	if flagEndpoint != "" {
		cfg.API.Endpoint = flagEndpoint
	}
	if cfg.API.Endpoint == "" {
		return nil, nil, fmt.Errorf("no backend endpoint configured (use --endpoint or %s)", config.EnvEndpoint)
	}
	return cfg, logger, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the authctl configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the user config file with defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.NewLoader(newLogger(flagVerbose)).EnsureUserConfig()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("endpoint:  %s\n", cfg.API.Endpoint)
			if cfg.Catalog.Endpoint != "" {
				fmt.Printf("catalog:   %s\n", cfg.Catalog.Endpoint)
			}
			fmt.Printf("store:     %s\n", cfg.Store.Path)
			fmt.Printf("timeout:   %s\n", cfg.API.Timeout)
			fmt.Printf("log level: %s\n", strings.ToLower(cfg.Log.Level))
			return nil
		},
	})
	return cmd
}
