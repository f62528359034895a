package cli

import (
	"fmt"
	"os"

	"github.com/koustreak/timefs/internal/progress"
	"github.com/koustreak/timefs/internal/storagemodel"
	"github.com/koustreak/timefs/internal/timerange"
	"github.com/spf13/cobra"
)

type modelFlags struct {
	best bool
}

func (f *modelFlags) add(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.best, "best", false, "keep only the highest version per time range")
}

// openModel resolves the root and builds the storage model for template.
func openModel(cmd *cobra.Command, e *env, root, template string) (*storagemodel.Model, error) {
	b, err := e.registry.Resolve(cmd.Context(), root)
	if err != nil {
		return nil, err
	}
	return storagemodel.Create(b, template, storagemodel.WithLogger(e.log))
}

// NewNamesCommand creates the names command
func NewNamesCommand() *cobra.Command {
	var flags modelFlags
	cmd := &cobra.Command{
		Use:   "names <root> <template> <range>",
		Short: "List the names of files covering a time range",
		Long: `List the names, relative to root, of files whose template-derived
time range intersects <range>. Nothing is downloaded.

A range is either "<start>/<end>" or a single instant such as 2020-01-02,
which covers the whole day.`,
		Example: `  timefs names https://example.org/data '%Y/%Y%m%d.dat' 2020-01-01/2020-01-05`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			m, err := openModel(cmd, e, args[0], args[1])
			if err != nil {
				return err
			}
			r, err := timerange.Parse(args[2])
			if err != nil {
				return err
			}

			var names []string
			if flags.best {
				names, err = m.BestNamesFor(cmd.Context(), r)
			} else {
				names, err = m.NamesFor(cmd.Context(), r)
			}
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
	flags.add(cmd)
	return cmd
}

// NewFilesCommand creates the files command
func NewFilesCommand() *cobra.Command {
	var flags modelFlags
	cmd := &cobra.Command{
		Use:   "files <root> <template> <range>",
		Short: "Fetch the files covering a time range and print their local paths",
		Long: `Materialize every file whose time range intersects <range> and print
the local path of each. Remote files are mirrored into the cache directory
on first use. Files that fail are reported after the ones that succeeded.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			m, err := openModel(cmd, e, args[0], args[1])
			if err != nil {
				return err
			}
			r, err := timerange.Parse(args[2])
			if err != nil {
				return err
			}

			var mon progress.Monitor = progress.Null
			if !globalFlags.Quiet && stderrIsTerminal() {
				mon = progress.NewBar(cmd.ErrOrStderr())
			}
			mon = progress.WithContext(cmd.Context(), mon)

			var files []string
			if flags.best {
				files, err = m.BestFilesFor(cmd.Context(), r, mon)
			} else {
				files, err = m.FilesFor(cmd.Context(), r, mon)
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return err
		},
	}
	flags.add(cmd)
	return cmd
}

// stderrIsTerminal keeps progress bars out of redirected output.
func stderrIsTerminal() bool {
	fi, err := os.Stderr.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
