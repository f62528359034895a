// Package cli implements the timefs command line.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the timefs command tree.
func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "timefs",
		Short: "Find and fetch time-indexed files on local and remote roots",
		Long: `timefs locates data files whose names encode time, such as
2020/20200101.dat, on local directories and on http(s), ftp and s3 roots.
Remote listings and files are cached locally.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	AddGlobalFlags(rootCmd)

	rootCmd.AddCommand(NewNamesCommand())
	rootCmd.AddCommand(NewFilesCommand())
	rootCmd.AddCommand(NewGlobCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}
