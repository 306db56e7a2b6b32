// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package fetch

import (
	"fmt"
	"net/url"
	"strings"
)

// Provider names accepted on the command line.
const (
	ProviderGitHub    = "github"
	ProviderGitLab    = "gitlab"
	ProviderLaunchpad = "launchpad"
)

// DefaultGitLabURL is used when --gitlab is given without a URL.
const DefaultGitLabURL = "https://gitlab.com"

// GitHubURL returns the public key listing of a GitHub user.
func GitHubURL(username string) string {
	return "https://github.com/" + url.PathEscape(username) + ".keys"
}

// GitLabURL returns the public key listing of a user on the GitLab instance
// at base (DefaultGitLabURL when empty).
func GitLabURL(base, username string) string {
	if base == "" {
		base = DefaultGitLabURL
	}
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(username) + ".keys"
}

// LaunchpadURL returns the public key listing of a Launchpad user.
func LaunchpadURL(username string) string {
	return "https://launchpad.net/~" + url.PathEscape(username) + "/+sshkeys"
}

// URLFor builds the key URL for username on the named provider. gitlabBase
// only applies to ProviderGitLab.
func URLFor(provider, username, gitlabBase string) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", fmt.Errorf("username is empty")
	}
	switch provider {
	case "", ProviderGitHub:
		return GitHubURL(username), nil
	case ProviderGitLab:
		if gitlabBase != "" {
			if err := ValidateURL(gitlabBase); err != nil {
				return "", err
			}
		}
		return GitLabURL(gitlabBase, username), nil
	case ProviderLaunchpad:
		return LaunchpadURL(username), nil
	default:
		return "", fmt.Errorf("unknown provider %q", provider)
	}
}

// ValidateURL checks that raw is an absolute http(s) URL.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", raw)
	}
	return nil
}
