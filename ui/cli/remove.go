// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/toeirei/keysync/internal/i18n"
	"github.com/toeirei/keysync/internal/schedule"
)

func parseIDs(args []string) ([]int, error) {
	if len(args) == 0 {
		return nil, errors.New(i18n.T("cli.error.no_ids"))
	}
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseUint(arg, 10, 32)
		if err != nil || id == 0 {
			return nil, errors.New(i18n.T("cli.error.invalid_id", arg))
		}
		ids = append(ids, int(id))
	}
	return schedule.SortedIDs(ids), nil
}

func newRemoveCmd(a *app) *cobra.Command {
	var dryRun, skipCheck bool

	cmd := &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove job(s) by ID",
		Long:  `Removes schedule entries by the IDs shown by 'keysync jobs'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			store := a.scheduleStore()

			if dryRun {
				listed, err := store.List()
				if err != nil {
					return err
				}
				for _, id := range ids {
					if id > len(listed) {
						return fmt.Errorf("unknown job id %d", id)
					}
					_, _ = fmt.Fprintln(a.out, i18n.T("cli.remove.dry_run", id, listed[id-1].Raw))
				}
				return nil
			}

			n, err := store.Remove(ids...)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(a.out, i18n.T("cli.remove.removed", n))
			a.warnIfInactive(cmd.Context(), skipCheck)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Skip checking that the keysync service is running")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Show what would be removed without changing anything")
	return cmd
}
