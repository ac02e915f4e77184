package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/flume/internal/logging"
	"github.com/aretw0/flume/internal/settings"
)

var rootCmd = &cobra.Command{
	Use:   "flume",
	Short: "Flume builds, checks and runs dataflow pipelines",
	Long: `Flume loads pipeline blueprints (YAML graphs of processes, clusters and
connections), validates them, renders them and runs them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands); environment settings are the defaults.
	s := settings.LoadOrDefault()
	rootCmd.PersistentFlags().String("log-level", s.Log.Level, "Log level (debug, info, warn, error) [FLUME_LOG_LEVEL]")
	rootCmd.PersistentFlags().String("store-dir", s.Store.Dir, "Directory of the file blueprint store [FLUME_STORE_DIR]")
	rootCmd.PersistentFlags().String("store-backend", s.Store.Backend, "Blueprint store backend for --store-dir: file or loam [FLUME_STORE_BACKEND]")
	rootCmd.PersistentFlags().String("redis-addr", s.Redis.Addr, "Use the redis blueprint store at this address [FLUME_REDIS_ADDR]")
}

// commandSettings returns the environment settings overridden by flags.
func commandSettings(cmd *cobra.Command) (*settings.Settings, error) {
	s, err := settings.Load()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		s.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("store-dir") {
		s.Store.Dir, _ = cmd.Flags().GetString("store-dir")
	}
	if cmd.Flags().Changed("store-backend") {
		s.Store.Backend, _ = cmd.Flags().GetString("store-backend")
	}
	if cmd.Flags().Changed("redis-addr") {
		s.Redis.Addr, _ = cmd.Flags().GetString("redis-addr")
	}
	return s, nil
}

func newLogger(s *settings.Settings) (*slog.Logger, error) {
	level, err := logging.ParseLevel(s.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}
