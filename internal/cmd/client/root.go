package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the calhub client.
// It registers the events and health command groups.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	if baseURL == nil {
		baseURL = baseURLFromEnv
	}
	root := &cobra.Command{
		Use:   "client",
		Short: "Calhub client commands",
	}
	root.AddCommand(NewEventsCommand(baseURL))
	root.AddCommand(NewHealthCommand(baseURL))
	return root
}
