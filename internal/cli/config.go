package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/koustreak/timefs/internal/config"
	"github.com/koustreak/timefs/internal/errs"
	"github.com/spf13/cobra"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View or create the timefs configuration file.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalFlags.ConfigFile
			if path == "" {
				path = filepath.Join(config.ConfigDir(), "config.yaml")
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errs.Newf(errs.ErrKindInvalidArgument, "%s already exists, use --force to overwrite", path)
			}

			out, err := config.Default().YAML()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return errs.Wrap(errs.ErrKindIOFailure, "create config directory", err)
			}
			if err := os.WriteFile(path, out, 0o600); err != nil {
				return errs.Wrap(errs.ErrKindIOFailure, "write "+path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
