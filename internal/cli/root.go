// Package cli implements the hfind command-line interface over the
// hashdb library: creating databases, building indexes, and looking up
// hash values.
package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess  = 0
	exitNotFound = 1
	exitError    = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configFile string
	database   string
	verbose    bool
}

var flags rootFlags

// log is the CLI-wide logger. The library itself never logs; diagnostics
// about sniffing, opening, and index builds surface here at debug level.
var log = logrus.New()

// NewRootCmd creates the top-level "hfind" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hfind",
		Short: "Look up hash values in forensic hash databases",
		Long: `hfind opens hash set databases in any supported format (NSRL, md5sum,
EnCase, HashKeeper, or the SQLite .kdb format), identifies the format by
content, and answers whether hash values are known.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log.SetOutput(os.Stderr)
			log.SetLevel(logrus.WarnLevel)
			if flags.verbose {
				log.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default: ~/.config/hfind/config.yaml)")
	root.PersistentFlags().StringVarP(&flags.database, "db", "d", "", "hash database or detached index path")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newCreateCmd())
	root.AddCommand(newLookupCmd())
	root.AddCommand(newAddCmd())
	root.AddCommand(newIndexCmd())
	root.AddCommand(newInfoCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitError)
	}
}

// databasePath resolves the database path from the --db flag or the
// config file, in that order.
func databasePath() (string, error) {
	if flags.database != "" {
		return flags.database, nil
	}
	cfg, err := loadConfig(flags.configFile)
	if err != nil {
		return "", err
	}
	if db := cfg.GetString(cfgKeyDatabase); db != "" {
		return db, nil
	}
	return "", fmt.Errorf("no hash database given; use --db or set %q in the config file", cfgKeyDatabase)
}
