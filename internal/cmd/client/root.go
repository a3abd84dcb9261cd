package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the feedsync client.
// It registers the chain and admin command groups.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "feedsync",
		Short: "feedsync client commands",
	}
	root.AddCommand(NewChainCommand(baseURL))
	root.AddCommand(NewAdminCommand(baseURL))
	return root
}
