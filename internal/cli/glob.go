package cli

import (
	"fmt"

	"github.com/koustreak/timefs/internal/glob"
	"github.com/spf13/cobra"
)

// NewGlobCommand creates the glob command
func NewGlobCommand() *cobra.Command {
	var uris bool
	cmd := &cobra.Command{
		Use:   "glob <root> <pattern>",
		Short: "List paths below root matching a glob",
		Long: `Expand an absolute glob such as /data/*/2020*.cdf against root.
"*" matches any run of characters within one path segment and "?" matches
one character; everything else is literal.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			b, err := e.registry.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			nodes, err := glob.Expand(cmd.Context(), b, args[1])
			if err != nil {
				return err
			}
			for _, n := range nodes {
				if uris {
					fmt.Fprintln(cmd.OutOrStdout(), n.String())
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), n.Path())
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&uris, "uri", false, "print full URIs instead of paths")
	return cmd
}
