// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/toeirei/keysync/internal/i18n"
	"github.com/toeirei/keysync/internal/job"
	"github.com/toeirei/keysync/internal/logging"
	"github.com/toeirei/keysync/internal/schedule"
)

// namedSchedules maps the schedule names accepted by set to cron descriptors.
var namedSchedules = map[string]string{
	"hourly":  "@hourly",
	"daily":   "@daily",
	"weekly":  "@weekly",
	"monthly": "@monthly",
}

// resolveCron returns the cron expression chosen by a schedule name or
// --cron. Exactly one of them must be given.
func resolveCron(name, cronExpr string) (string, error) {
	name = strings.TrimSpace(name)
	cronExpr = strings.TrimSpace(cronExpr)
	switch {
	case name != "" && cronExpr != "":
		return "", errors.New(i18n.T("cli.error.schedule_and_cron"))
	case cronExpr != "":
		return cronExpr, nil
	case name != "":
		expr, ok := namedSchedules[strings.ToLower(name)]
		if !ok {
			return "", errors.New(i18n.T("cli.error.unknown_schedule", name))
		}
		return expr, nil
	default:
		return "", errors.New(i18n.T("cli.error.no_schedule"))
	}
}

func newSetCmd(a *app) *cobra.Command {
	var localUser, cronExpr string
	var now, dryRun, skipCheck bool

	cmd := &cobra.Command{
		Use:   "set <username> [Hourly|Daily|Weekly|Monthly]",
		Short: "Add an automatic job",
		Long: `Adds a schedule entry that makes the daemon sync the keys of <username>
into the local account on a named schedule or a custom --cron expression.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 2 {
				name = args[1]
			}
			expr, err := resolveCron(name, cronExpr)
			if err != nil {
				return err
			}
			url, err := providerURL(cmd, args[0], a.cfg.Fetch.GitLabURL)
			if err != nil {
				return err
			}
			target, err := a.localUser(localUser)
			if err != nil {
				return err
			}

			entry := schedule.Entry{User: target, Cron: expr, URL: url}
			// Validate with the daemon's own compiler so that what set accepts
			// is exactly what the daemon schedules.
			j, ok, err := job.NewCompiler(nil, logging.L).Compile(0, entry.String())
			if err != nil {
				return err
			}
			if !ok {
				return errors.New(i18n.T("cli.error.no_schedule"))
			}

			ctx := cmd.Context()
			if dryRun {
				_, _ = fmt.Fprintln(a.out, i18n.T("cli.set.dry_run", entry.String()))
				if now {
					toAdd, err := a.executor(nil).Plan(ctx, target, url)
					if err != nil {
						return err
					}
					printPlan(a, target, toAdd)
				}
				return nil
			}

			if err := a.scheduleStore().Append(entry); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(a.out, i18n.T("cli.set.added", entry.String()))
			_, _ = fmt.Fprintln(a.out, i18n.T("cli.set.next_run", j.Next(time.Now()).Format(time.RFC1123)))
			a.warnIfInactive(ctx, skipCheck)

			if !now {
				return nil
			}
			h, err := a.openHistory(ctx)
			if err != nil {
				return err
			}
			if h != nil {
				defer func() { _ = h.Close() }()
			}
			return reportSync(a, a.executor(h).Sync(ctx, target, url))
		},
	}
	addProviderFlags(cmd)
	cmd.Flags().StringVarP(&localUser, "user", "u", "", "Local account to update (default: current user)")
	cmd.Flags().StringVarP(&cronExpr, "cron", "c", "", "Custom cron schedule, e.g. '*/15 * * * *' (conflicts with a schedule name)")
	cmd.Flags().BoolVarP(&now, "now", "n", false, "Also sync once right away")
	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Skip checking that the keysync service is running")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Show what would change without changing anything")
	return cmd
}
