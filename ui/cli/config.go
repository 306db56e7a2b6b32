// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/toeirei/keysync/internal/config"
	"github.com/toeirei/keysync/internal/i18n"
	"github.com/toeirei/keysync/internal/logging"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write the effective configuration",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newConfigShowCmd(a), newConfigInitCmd(a))
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Marshal(&a.cfg)
			if err != nil {
				return err
			}
			_, err = a.out.Write(data)
			return err
		},
	}
}

func newConfigInitCmd(a *app) *cobra.Command {
	var output string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to keysync.yaml",
		Long: `Writes the configuration currently in effect (defaults, config file,
KEYSYNC_* variables and flags) to --output, by default the per-user
keysync.yaml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := output
			if path == "" {
				p, err := config.UserConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			exists, err := afero.Exists(a.fs, path)
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if exists && !force {
				return errors.New(i18n.T("cli.error.config_exists", path))
			}
			if err := config.WriteConfigFile(a.fs, path, &a.cfg); err != nil {
				return err
			}
			logging.Infof("configuration written to %s", path)
			_, _ = fmt.Fprintln(a.out, i18n.T("cli.config.written", path))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write (default: per-user keysync.yaml)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}
