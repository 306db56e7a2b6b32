// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toeirei/keysync/internal/i18n"
	"github.com/toeirei/keysync/internal/keysync"
	"github.com/toeirei/keysync/internal/sshkey"
)

func newGetCmd(a *app) *cobra.Command {
	var localUser string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "get <username>",
		Short: "Retrieve keys from an online source once",
		Long: `Fetches the public keys of <username> from the selected provider and
appends the ones missing from the local account's authorized_keys file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := providerURL(cmd, args[0], a.cfg.Fetch.GitLabURL)
			if err != nil {
				return err
			}
			target, err := a.localUser(localUser)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if dryRun {
				toAdd, err := a.executor(nil).Plan(ctx, target, url)
				if err != nil {
					return err
				}
				printPlan(a, target, toAdd)
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
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Show the keys that would be added without writing them")
	return cmd
}

func printPlan(a *app, target string, toAdd sshkey.Set) {
	if toAdd.Len() == 0 {
		_, _ = fmt.Fprintln(a.out, i18n.T("cli.get.up_to_date", target))
		return
	}
	_, _ = fmt.Fprintln(a.out, i18n.T("cli.get.dry_run_header", target))
	for _, k := range toAdd.Keys() {
		_, _ = fmt.Fprintf(a.out, "  %s\n", sshkey.Describe(k))
	}
}

func reportSync(a *app, o keysync.Outcome) error {
	if o.State == keysync.StateFailed {
		return fmt.Errorf("%s", i18n.T("cli.error.sync_failed", o.User, o.FailedIn, o.Err))
	}
	if o.Added == 0 {
		_, _ = fmt.Fprintln(a.out, i18n.T("cli.get.up_to_date", o.User))
		return nil
	}
	_, _ = fmt.Fprintln(a.out, i18n.T("cli.get.added", o.Added, o.User))
	return nil
}
