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
	"github.com/toeirei/keysync/internal/keysync"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded synchronization runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			h, err := a.openHistory(ctx)
			if err != nil {
				return err
			}
			if h == nil {
				_, _ = fmt.Fprintln(a.out, i18n.T("cli.history.disabled"))
				return nil
			}
			defer func() { _ = h.Close() }()

			runs, err := h.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(a.out, i18n.T("cli.history.none"))
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				state := string(r.State)
				if r.State == keysync.StateFailed && r.FailedIn != "" {
					state += " (" + string(r.FailedIn) + ")"
				}
				rows = append(rows, []string{
					r.StartedAt.Local().Format("2006-01-02 15:04:05"),
					r.User,
					state,
					strconv.Itoa(r.Added),
					r.Duration.Round(time.Millisecond).String(),
					r.Error,
				})
			}
			headers := []string{
				i18n.T("cli.history.col_time"), i18n.T("cli.history.col_user"), i18n.T("cli.history.col_state"),
				i18n.T("cli.history.col_added"), i18n.T("cli.history.col_duration"), i18n.T("cli.history.col_error"),
			}
			failed := func(row int) bool { return runs[row].State == keysync.StateFailed }
			_, _ = fmt.Fprintln(a.out, renderTable(a.out, headers, rows, failed))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show (0 shows all)")
	return cmd
}
