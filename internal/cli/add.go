package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/hashdb/pkg/hashdb"
	"github.com/mesh-intelligence/hashdb/pkg/types"
)

func newAddCmd() *cobra.Command {
	var e types.Entry

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an entry to an update-capable database",
		Long: `Add one entry to the database. At least one of --md5, --sha1, or
--sha256 is required. The write runs inside a transaction and rolls back
on failure.`,
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

			if err := h.BeginTransaction(); err != nil {
				return err
			}
			if err := h.AddEntry(e); err != nil {
				if rbErr := h.RollbackTransaction(); rbErr != nil {
					log.WithError(rbErr).Warn("rollback failed")
				}
				return err
			}
			if err := h.CommitTransaction(); err != nil {
				return err
			}
			fmt.Println("entry added")
			return nil
		},
	}

	cmd.Flags().StringVar(&e.Filename, "filename", "", "file name to associate with the hashes")
	cmd.Flags().StringVar(&e.MD5, "md5", "", "MD5 value (32 hex digits)")
	cmd.Flags().StringVar(&e.SHA1, "sha1", "", "SHA-1 value (40 hex digits)")
	cmd.Flags().StringVar(&e.SHA256, "sha256", "", "SHA-256 value (64 hex digits)")
	cmd.Flags().StringVar(&e.Comment, "comment", "", "comment to associate with the entry")
	return cmd
}
