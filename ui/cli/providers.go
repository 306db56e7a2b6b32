// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/toeirei/keysync/internal/fetch"
	"github.com/toeirei/keysync/internal/i18n"
)

// gitlabFromConfig is the value --gitlab takes without =URL; it selects the
// instance configured as fetch.gitlab_url.
const gitlabFromConfig = "fetch.gitlab_url"

// addProviderFlags registers -g/--github, -l/--launchpad and
// -h/--gitlab[=URL]. -h is taken from help, which keeps its long form.
func addProviderFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("help", false, "help for "+cmd.Name())
	cmd.Flags().BoolP("github", "g", false, "Retrieve from GitHub (default)")
	cmd.Flags().BoolP("launchpad", "l", false, "Retrieve from Launchpad")
	cmd.Flags().StringP("gitlab", "h", "", "Retrieve from GitLab, from fetch.gitlab_url or the instance at URL (use --gitlab=URL)")
	cmd.Flags().Lookup("gitlab").NoOptDefVal = gitlabFromConfig
}

// providerURL resolves the key URL of username from the provider flags.
// gitlabBase is used for --gitlab without a URL.
func providerURL(cmd *cobra.Command, username, gitlabBase string) (string, error) {
	github, _ := cmd.Flags().GetBool("github")
	launchpad, _ := cmd.Flags().GetBool("launchpad")
	gitlab := cmd.Flags().Changed("gitlab")

	chosen := 0
	provider := fetch.ProviderGitHub
	for _, set := range []struct {
		on   bool
		name string
	}{{github, fetch.ProviderGitHub}, {launchpad, fetch.ProviderLaunchpad}, {gitlab, fetch.ProviderGitLab}} {
		if set.on {
			chosen++
			provider = set.name
		}
	}
	if chosen > 1 {
		return "", errors.New(i18n.T("cli.error.multiple_providers"))
	}

	base, _ := cmd.Flags().GetString("gitlab")
	if base == gitlabFromConfig {
		base = gitlabBase
	}
	return fetch.URLFor(provider, username, base)
}
