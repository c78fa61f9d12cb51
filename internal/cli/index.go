package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/hashdb/pkg/hashdb"
)

func newIndexCmd() *cobra.Command {
	var hint string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the lookup index for a legacy-format database",
		Long: `Build the detached lookup index a legacy text-format database needs.
The hint selects the hash type for formats that index more than one,
e.g. "nsrl-sha1"; the format default is used when omitted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := databasePath()
			if err != nil {
				return err
			}
			h, err := hashdb.Open(path, 0)
			if err != nil {
				return err
			}
			defer h.Close()

			log.WithFields(map[string]any{"path": path, "format": h.Format(), "hint": hint}).Debug("building index")
			if err := h.MakeIndex(hint); err != nil {
				return err
			}
			fmt.Println("index built")
			return nil
		},
	}

	cmd.Flags().StringVar(&hint, "hint", "", "index layout hint (e.g. nsrl-sha1)")
	return cmd
}
