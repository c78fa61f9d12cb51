package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/hashdb/pkg/hashdb"
	"github.com/mesh-intelligence/hashdb/pkg/types"
)

func newInfoCmd() *cobra.Command {
	var indexOnly bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show how a database was identified and what it supports",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := databasePath()
			if err != nil {
				return err
			}
			var oflags hashdb.OpenFlag
			if indexOnly {
				oflags |= hashdb.OpenIndexOnly
			}
			h, err := hashdb.Open(path, oflags)
			if err != nil {
				return err
			}
			defer h.Close()

			dbPath, _ := h.Path()
			name, _ := h.DisplayName()
			external, _ := h.UsesExternalIndexes()
			updates, _ := h.AcceptsUpdates()

			fmt.Printf("path:             %s\n", dbPath)
			fmt.Printf("name:             %s\n", name)
			fmt.Printf("format:           %s\n", h.Format())
			fmt.Printf("external indexes: %v\n", external)
			fmt.Printf("accepts updates:  %v\n", updates)

			if external {
				for _, ht := range []types.HashType{types.HashMD5, types.HashSHA1} {
					idxPath, err := h.IndexPath(ht)
					if err != nil {
						continue
					}
					have, _ := h.HasIndex(ht)
					fmt.Printf("%s index:        %s (available: %v)\n", ht, idxPath, have)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&indexOnly, "index-only", false, "open the detached index without the primary database")
	return cmd
}
