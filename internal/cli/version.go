package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridable at link time.
var version = "0.1.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hfind v%s\n", version)
		},
	}
}
