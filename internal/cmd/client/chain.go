package client

import (
	"errors"
	"fmt"
	"strconv"

	transports "github.com/rzbill/feedsync/internal/cmd/client/transports"
	"github.com/spf13/cobra"
)

// NewChainCommand constructs the `chain` command group and subcommands.
func NewChainCommand(baseURL BaseURLFunc) *cobra.Command {
	chainCmd := &cobra.Command{Use: "chain", Short: "Sync chain operations"}
	addAuthFlags(chainCmd)
	addIdentityFlags(chainCmd)

	chainCmd.AddCommand(
		newChainCreateCommand(baseURL),
		newChainJoinCommand(baseURL),
		newChainDevicesCommand(baseURL),
		newChainLeaveCommand(baseURL),
		newReadMarkCommand(baseURL, false),
		newReadMarkCommand(baseURL, true),
		newFeedsCommand(baseURL),
		newPushFeedsCommand(baseURL),
	)
	return chainCmd
}

func newChainCreateCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new sync chain and register this device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return errors.New("--name is required")
			}
			res, err := getTransport(cmd, baseURL).Create(cmd.Context(), name)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().String("name", "", "Device name")
	return cmd
}

func newChainJoinCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join",
		Short: "Register a new device on an existing chain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			code, _ := cmd.Flags().GetString("sync-code")
			if name == "" || code == "" {
				return errors.New("--name and --sync-code are required")
			}
			res, err := getTransport(cmd, baseURL).Join(cmd.Context(), code, name)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().String("name", "", "Device name")
	return cmd
}

func newChainDevicesCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices registered on the chain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := identityFrom(cmd)
			if err != nil {
				return err
			}
			devices, err := getTransport(cmd, baseURL).Devices(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"devices": devices})
		},
	}
}

func newChainLeaveCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "leave [device-id]",
		Short: "Remove a device from the chain (defaults to this device)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identityFrom(cmd)
			if err != nil {
				return err
			}
			target := id.DeviceID
			if len(args) == 1 {
				target, err = strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid device id %q", args[0])
				}
			}
			devices, err := getTransport(cmd, baseURL).RemoveDevice(cmd.Context(), id, target)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"devices": devices})
		},
	}
}

// newReadMarkCommand constructs `readmark` or, when encrypted, `ereadmark`.
// Without --feed/--data it lists marks newer than --since.
func newReadMarkCommand(baseURL BaseURLFunc, encrypted bool) *cobra.Command {
	use, short := "readmark", "List or send plain read marks"
	if encrypted {
		use, short = "ereadmark", "List or send encrypted read marks"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := identityFrom(cmd)
			if err != nil {
				return err
			}
			t := getTransport(cmd, baseURL)
			since, _ := cmd.Flags().GetInt64("since")

			if encrypted {
				data, _ := cmd.Flags().GetStringSlice("data")
				if len(data) == 0 {
					marks, err := t.EncryptedReadMarks(cmd.Context(), id, since)
					if err != nil {
						return err
					}
					return printJSON(cmd, map[string]any{"readMarks": marks})
				}
				ts, err := t.SendEncryptedReadMarks(cmd.Context(), id, data)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]int64{"timestamp": ts})
			}

			feed, _ := cmd.Flags().GetString("feed")
			guids, _ := cmd.Flags().GetStringSlice("guid")
			if feed == "" {
				marks, err := t.ReadMarks(cmd.Context(), id, since)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{"readMarks": marks})
			}
			if len(guids) == 0 {
				return errors.New("--guid is required with --feed")
			}
			items := make([]transports.ReadMarkItem, len(guids))
			for i, g := range guids {
				items[i] = transports.ReadMarkItem{FeedURL: feed, ArticleGUID: g}
			}
			ts, err := t.SendReadMarks(cmd.Context(), id, items)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]int64{"timestamp": ts})
		},
	}
	cmd.Flags().Int64("since", 0, "List marks with a timestamp greater than this (ms)")
	if encrypted {
		cmd.Flags().StringSlice("data", nil, "Encrypted mark payloads to send")
	} else {
		cmd.Flags().String("feed", "", "Feed URL of the marks to send")
		cmd.Flags().StringSlice("guid", nil, "Article GUIDs to mark as read")
	}
	return cmd
}

func newFeedsCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "Fetch the feeds blob",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := identityFrom(cmd)
			if err != nil {
				return err
			}
			etag, _ := cmd.Flags().GetString("if-none-match")
			res, err := getTransport(cmd, baseURL).GetFeeds(cmd.Context(), id, etag)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().String("if-none-match", "", "Only fetch when the server ETag differs")
	return cmd
}

func newPushFeedsCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push-feeds",
		Short: "Replace the feeds blob",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := identityFrom(cmd)
			if err != nil {
				return err
			}
			hash, _ := cmd.Flags().GetInt64("hash")
			data, _ := cmd.Flags().GetString("data")
			ifMatch, _ := cmd.Flags().GetString("if-match")
			stored, err := getTransport(cmd, baseURL).PushFeeds(cmd.Context(), id, ifMatch, hash, data)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]int64{"hash": stored})
		},
	}
	cmd.Flags().Int64("hash", 0, "Content hash of the blob")
	cmd.Flags().String("data", "", "Encrypted feeds blob")
	cmd.Flags().String("if-match", "", "ETag the update is based on (required once feeds exist)")
	return cmd
}
