package client

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// NewHealthCommand constructs the `health` command.
func NewHealthCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server health and online user count",
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := newAPIClient(baseURL()).Health(cmd.Context())
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(body)
		},
	}
}
