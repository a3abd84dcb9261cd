package main

import (
	"context"
	"fmt"
	"os"

	clientcmd "github.com/rzbill/feedsync/internal/cmd/client"
	serverrun "github.com/rzbill/feedsync/internal/cmd/server"
	cfgpkg "github.com/rzbill/feedsync/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := cfgpkg.LoadDotEnv(""); err != nil {
		fmt.Fprintln(os.Stderr, "load .env:", err)
	}

	rootCmd := clientcmd.NewRoot(apiURL)
	rootCmd.Short = "feedsync reader sync server and CLI"
	rootCmd.Long = "feedsync keeps devices of a sync chain in agreement on read articles and subscribed feeds."
	rootCmd.SilenceUsage = true

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverCmd.AddCommand(newServerStartCommand())
	rootCmd.AddCommand(serverCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newServerStartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "start",
		Short:   "Start feedsync server (gRPC and HTTP)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := cfgpkg.Load(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfgpkg.FromEnv(&cfg)
			applyFlags(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := serverrun.Run(cmd.Context(), serverrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("config", os.Getenv("FEEDSYNC_CONFIG"), "Config file (.json, .yaml or .yml)")
	cmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	cmd.Flags().String("grpc", ":50051", "gRPC listen address (empty disables)")
	cmd.Flags().String("http", ":8080", "HTTP listen address (empty disables)")
	cmd.Flags().String("engine", "pebble", "Storage engine: pebble|badger")
	cmd.Flags().String("fsync", "interval", "Fsync mode: always|interval|never")
	cmd.Flags().Int("fsync-interval-ms", 5, "When --fsync=interval, group-commit window in ms")
	cmd.Flags().String("log-level", "", "Log level: debug|info|warn|error")
	cmd.Flags().String("log-format", "", "Log format: text|json (default text)")
	return cmd
}

// applyFlags copies explicitly set flags over file and env values.
func applyFlags(cmd *cobra.Command, cfg *cfgpkg.Config) {
	f := cmd.Flags()
	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	str("data-dir", &cfg.Store.DataDir)
	str("grpc", &cfg.Server.GRPCAddr)
	str("http", &cfg.Server.HTTPAddr)
	str("engine", &cfg.Store.Engine)
	str("fsync", &cfg.Store.Fsync)
	str("log-level", &cfg.Log.Level)
	str("log-format", &cfg.Log.Format)
	if f.Changed("fsync-interval-ms") {
		cfg.Store.FsyncIntervalMs, _ = f.GetInt("fsync-interval-ms")
	}
}

func apiURL() string {
	if v := os.Getenv("FEEDSYNC_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
