// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/toeirei/keysync/internal/i18n"
	"github.com/toeirei/keysync/internal/job"
	"github.com/toeirei/keysync/internal/logging"
)

func newJobsCmd(a *app) *cobra.Command {
	var skipCheck bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List scheduled jobs",
		Long:  `Lists the schedule entries with the IDs accepted by 'keysync remove'.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.scheduleStore()
			if err := store.EnsureExists(); err != nil {
				return err
			}
			listed, err := store.List()
			if err != nil {
				return err
			}
			a.warnIfInactive(cmd.Context(), skipCheck)
			if len(listed) == 0 {
				_, _ = fmt.Fprintln(a.out, i18n.T("cli.jobs.none"))
				return nil
			}

			compiler := job.NewCompiler(nil, logging.L)
			now := time.Now()
			rows := make([][]string, 0, len(listed))
			invalid := make(map[int]bool)
			for i, l := range listed {
				j, _, cerr := compiler.Compile(l.ID, l.Raw)
				if cerr != nil {
					invalid[i] = true
					rows = append(rows, []string{strconv.Itoa(l.ID), l.Raw, "", "", i18n.T("cli.jobs.invalid", cerr)})
					continue
				}
				rows = append(rows, []string{
					strconv.Itoa(l.ID), j.User, j.Expr, j.SourceURL,
					j.Next(now).Format("2006-01-02 15:04"),
				})
			}
			headers := []string{
				i18n.T("cli.jobs.col_id"), i18n.T("cli.jobs.col_user"), i18n.T("cli.jobs.col_cron"),
				i18n.T("cli.jobs.col_url"), i18n.T("cli.jobs.col_next"),
			}
			_, _ = fmt.Fprintln(a.out, renderTable(a.out, headers, rows, func(row int) bool { return invalid[row] }))
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Skip checking that the keysync service is running")
	return cmd
}
