package client

import (
	"github.com/spf13/cobra"
)

// NewAdminCommand constructs the `admin` command group and subcommands.
func NewAdminCommand(baseURL BaseURLFunc) *cobra.Command {
	adminCmd := &cobra.Command{Use: "admin", Short: "Operator commands (require --admin-key)"}
	addAuthFlags(adminCmd)

	sweepCmd := &cobra.Command{
		Use:   "gc-sweep",
		Short: "Delete every chain eligible for garbage collection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := getTransport(cmd, baseURL).Sweep(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	chainCmd := &cobra.Command{
		Use:   "chain <sync-code>",
		Short: "Show device count and GC eligibility of a chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := getTransport(cmd, baseURL).ChainInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	adminCmd.AddCommand(sweepCmd, chainCmd)
	return adminCmd
}
