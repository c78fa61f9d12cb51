package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/hashdb/pkg/hashdb"
)

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <path.kdb>",
		Short: "Create a new, empty hash database",
		Long:  "Create a new, empty hash database. Only the SQLite .kdb format supports creation.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := hashdb.Create(args[0]); err != nil {
				return err
			}
			fmt.Printf("created %s\n", args[0])
			return nil
		},
	}
}
