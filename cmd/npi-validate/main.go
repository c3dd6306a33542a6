package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gyeh/npi-validator/internal/config"
)

// rootOptions are flags shared by every command.
type rootOptions struct {
	configFile  string
	registryURL string
	cacheTTL    string
	logLevel    string
}

func main() {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "npi-validate",
		Short:         "Validate National Provider Identifiers against the NPPES NPI Registry",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file (environment variables still apply)")
	rootCmd.PersistentFlags().StringVar(&opts.registryURL, "registry-url", "", "NPI Registry API base URL")
	rootCmd.PersistentFlags().StringVar(&opts.cacheTTL, "cache-ttl", "", "Cache freshness window (e.g. 24h, 0 to disable, 'never' for no expiry)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(newValidateCmd(opts))
	rootCmd.AddCommand(newBatchCmd(opts))
	rootCmd.AddCommand(newSearchCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// load resolves configuration from the config file, the environment and
// the persistent flags, in that order.
func (o *rootOptions) load() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFile(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}

	if o.registryURL != "" {
		cfg.Registry.URL = o.registryURL
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.cacheTTL != "" {
		ttl, err := config.ParseTTL(o.cacheTTL)
		if err != nil {
			return config.Config{}, fmt.Errorf("invalid --cache-ttl: %w", err)
		}
		cfg.Cache.TTL = ttl
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nInterrupted, cleaning up...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
