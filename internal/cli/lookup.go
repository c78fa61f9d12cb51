package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/hashdb/pkg/hashdb"
	"github.com/mesh-intelligence/hashdb/pkg/types"
)

func newLookupCmd() *cobra.Command {
	var (
		quick     bool
		indexOnly bool
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "lookup <hash>...",
		Short: "Look up hash values in a database",
		Long: `Look up one or more hexadecimal hash values. Each match prints the hash
and its file name; misses print "<hash> not found". The exit code is 0 when
every value was found, 1 when any was missing.`,
		Args: cobra.MinimumNArgs(1),
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
			log.WithFields(map[string]any{"path": path, "format": h.Format()}).Debug("opened database")

			missing := false
			for _, hash := range args {
				found, err := lookupOne(h, hash, quick, verbose)
				if err != nil {
					return err
				}
				if !found {
					missing = true
				}
			}
			if missing {
				os.Exit(exitNotFound)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quick, "quick", "q", false, "existence check only; print nothing but the verdict")
	cmd.Flags().BoolVar(&indexOnly, "index-only", false, "open the detached index without the primary database")
	cmd.Flags().BoolVarP(&verbose, "long", "l", false, "print full metadata for each match")
	return cmd
}

func lookupOne(h *hashdb.Handle, hash string, quick, verbose bool) (bool, error) {
	if verbose {
		var res types.VerboseResult
		found, err := h.LookupVerbose(hash, &res)
		if err != nil {
			return false, err
		}
		if !found {
			fmt.Printf("%s not found\n", hash)
			return false, nil
		}
		fmt.Printf("%s\n", res.Hash)
		if res.MD5 != "" {
			fmt.Printf("  md5:    %s\n", res.MD5)
		}
		if res.SHA1 != "" {
			fmt.Printf("  sha1:   %s\n", res.SHA1)
		}
		if res.SHA256 != "" {
			fmt.Printf("  sha256: %s\n", res.SHA256)
		}
		for _, name := range res.Filenames {
			fmt.Printf("  name:   %s\n", name)
		}
		for _, c := range res.Comments {
			fmt.Printf("  note:   %s\n", c)
		}
		return true, nil
	}

	var lflags types.Flag
	if quick {
		lflags |= types.FlagQuick
	}
	found, err := h.LookupString(hash, lflags, func(hash, name string) error {
		fmt.Printf("%s\t%s\n", hash, name)
		return nil
	})
	if err != nil {
		return false, err
	}
	if !found {
		fmt.Printf("%s not found\n", hash)
	} else if quick {
		fmt.Printf("%s found\n", hash)
	}
	return found, nil
}
