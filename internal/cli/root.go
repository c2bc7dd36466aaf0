// Package cli wires the hostkit commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/hostkit/internal/config"
	"github.com/rileyhilliard/hostkit/internal/host"
	"github.com/rileyhilliard/hostkit/internal/logger"
)

// Global flags
var (
	configFlag string
	hostFlag   string
	userFlag   string
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "hostkit",
	Short: "Host abstraction for storage test infrastructure",
	Long: `hostkit runs commands on a local or remote machine, tracks
backgrounded processes, mounts and unmounts an NFS export, and injects
network faults against a target address.

Configuration is read from .hostkit.yaml (current directory, parents, or
~/.config/hostkit/config.yaml).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "target host (overrides config; empty = local)")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "remote user (overrides config)")
}

// loadConfig loads the configuration with CLI overrides applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return nil, err
	}
	if hostFlag != "" {
		cfg.Host = hostFlag
	}
	if userFlag != "" {
		cfg.User = userFlag
	}
	return cfg, nil
}

// newSession loads config and opens a host session.
func newSession() (*host.Session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return host.New(cfg, logger.Default())
}
