package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	transports "github.com/rzbill/feedsync/internal/cmd/client/transports"
	"github.com/spf13/cobra"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// Environment variables consulted for flag defaults.
const (
	EnvUser     = "FEEDSYNC_USER"
	EnvPassword = "FEEDSYNC_PASSWORD"
	EnvAdminKey = "FEEDSYNC_ADMIN_KEY"
	EnvSyncCode = "FEEDSYNC_SYNC_CODE"
	EnvDeviceID = "FEEDSYNC_DEVICE_ID"
)

// getTransport builds the HTTP transport from the persistent flags.
func getTransport(cmd *cobra.Command, baseURL BaseURLFunc) transports.SyncTransport {
	u, _ := cmd.Flags().GetString("url")
	if u == "" {
		u = baseURL()
	}
	user, _ := cmd.Flags().GetString("user")
	password, _ := cmd.Flags().GetString("password")
	adminKey, _ := cmd.Flags().GetString("admin-key")
	return transports.NewHTTPTransport(u, transports.Credentials{
		User:     user,
		Password: password,
		AdminKey: adminKey,
	})
}

// identityFrom reads --sync-code and --device-id.
func identityFrom(cmd *cobra.Command) (transports.Identity, error) {
	code, _ := cmd.Flags().GetString("sync-code")
	device, _ := cmd.Flags().GetInt64("device-id")
	if code == "" {
		return transports.Identity{}, errors.New("--sync-code is required")
	}
	if device == 0 {
		return transports.Identity{}, errors.New("--device-id is required")
	}
	return transports.Identity{SyncCode: code, DeviceID: device}, nil
}

// addAuthFlags registers connection flags on a command group.
func addAuthFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("url", "", "Server base URL")
	cmd.PersistentFlags().String("user", os.Getenv(EnvUser), "Basic auth user")
	cmd.PersistentFlags().String("password", os.Getenv(EnvPassword), "Basic auth password")
	cmd.PersistentFlags().String("admin-key", os.Getenv(EnvAdminKey), "Admin key for admin commands")
}

// addIdentityFlags registers --sync-code and --device-id.
func addIdentityFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("sync-code", os.Getenv(EnvSyncCode), "Sync code of the chain")
	device, _ := strconv.ParseInt(os.Getenv(EnvDeviceID), 10, 64)
	cmd.PersistentFlags().Int64("device-id", device, "Device id registered on the chain")
}

// printJSON writes v as one JSON document to the command output.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
