// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the root command, the configuration and the services the
// subcommands (get, set, remove, jobs, history, daemon) share.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/toeirei/keysync/buildvars"
	"github.com/toeirei/keysync/internal/authkeys"
	"github.com/toeirei/keysync/internal/config"
	"github.com/toeirei/keysync/internal/fetch"
	"github.com/toeirei/keysync/internal/history"
	"github.com/toeirei/keysync/internal/i18n"
	"github.com/toeirei/keysync/internal/keysync"
	"github.com/toeirei/keysync/internal/logging"
	"github.com/toeirei/keysync/internal/schedule"
	"github.com/toeirei/keysync/internal/systemd"
)

var version = "dev"   // this will be set by the linker
var gitCommit = "dev" // set at build time with the short commit SHA
var buildDate = ""    // set at build time (RFC3339)

// app carries the configuration and the replaceable collaborators of one
// command invocation.
type app struct {
	fs     afero.Fs
	out    io.Writer
	errOut io.Writer

	// Collaborators; tests replace them.
	fetcher     fetch.Fetcher
	lookup      authkeys.LookupFunc
	chown       *bool
	runner      systemd.Runner
	currentUser func() (string, error)
	executable  func() (string, error)
	unitPath    string

	configFile string
	verbosity  int
	cfg        config.Config
}

func defaultApp() *app {
	return &app{
		fs:     afero.NewOsFs(),
		out:    os.Stdout,
		errOut: os.Stderr,
		lookup: authkeys.SystemLookup,
		runner: systemd.ExecRunner,
		currentUser: func() (string, error) {
			u, err := user.Current()
			if err != nil {
				return "", err
			}
			return u.Username, nil
		},
		executable: os.Executable,
		unitPath:   systemd.DefaultUnitPath,
	}
}

// Execute runs the CLI entrypoint. The main package should call this
// function and handle process exit.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd creates and configures a new root cobra command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultApp())
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keysync",
		Short: "keysync keeps authorized_keys in sync with public key providers.",
		Long: `keysync fetches the public SSH keys of GitHub, GitLab or Launchpad
users (or any URL serving one key per line) and merges them into local
accounts' authorized_keys files, once or on a cron schedule.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	v, c, d := resolveBuildVersion(nil)
	cmd.Version = compositeVersion(v, c, d)

	cmd.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", "Verbose output (-v info, -vv debug)")
	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default searches keysync.yaml)")
	cmd.PersistentFlags().String("schedule", "", "schedule file path")
	cmd.PersistentFlags().String("language", "", `output language ("en", "de")`)
	_ = config.BindFlag(cmd.PersistentFlags(), "schedule", "schedule.path")
	_ = config.BindFlag(cmd.PersistentFlags(), "language", "language")

	cmd.AddCommand(
		newGetCmd(a),
		newSetCmd(a),
		newRemoveCmd(a),
		newJobsCmd(a),
		newHistoryCmd(a),
		newDaemonCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

// setup loads the configuration and initializes logging and messages.
func (a *app) setup(cmd *cobra.Command) error {
	logging.SetVerbosity(a.verbosity)

	if a.configFile != "" {
		if _, err := a.fs.Stat(a.configFile); err != nil {
			return fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
	}
	cfg, err := config.Load(cmd, a.configFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	lang, err := checkLanguage(cfg.Language)
	if err != nil {
		return err
	}
	cfg.Language = lang
	a.cfg = cfg
	i18n.SetLang(cfg.Language)
	logging.Debugf("config loaded: schedule=%s history=%t language=%s", cfg.Schedule.Path, cfg.History.Enabled, i18n.GetLang())
	return nil
}

// checkLanguage accepts the embedded locales, also with a region suffix
// ("de-AT" and "de_AT" select "de"). It returns the tag in BCP 47 form.
func checkLanguage(lang string) (string, error) {
	available := i18n.GetAvailableLocales()
	tag := strings.ReplaceAll(lang, "_", "-")
	base, _, _ := strings.Cut(tag, "-")
	if _, ok := available[strings.ToLower(base)]; ok {
		return tag, nil
	}
	tags := make([]string, 0, len(available))
	for tag, name := range available {
		tags = append(tags, fmt.Sprintf("%s (%s)", tag, name))
	}
	sort.Strings(tags)
	return "", errors.New(i18n.T("cli.error.unsupported_language", lang, strings.Join(tags, ", ")))
}

func (a *app) scheduleStore() *schedule.FileStore {
	return schedule.NewFileStore(a.fs, a.cfg.Schedule.Path)
}

func (a *app) keyStore() *authkeys.FileStore {
	opts := []authkeys.Option{authkeys.WithLookup(a.lookup)}
	if a.chown != nil {
		opts = append(opts, authkeys.WithChown(*a.chown))
	}
	return authkeys.NewFileStore(a.fs, opts...)
}

func (a *app) keyFetcher() fetch.Fetcher {
	if a.fetcher != nil {
		return a.fetcher
	}
	return fetch.NewHTTPFetcher(a.cfg.Fetch.Timeout, "keysync/"+buildvars.VersionOrDefault(version))
}

// openHistory returns nil without error when history is disabled.
func (a *app) openHistory(ctx context.Context) (*history.Store, error) {
	if !a.cfg.History.Enabled {
		return nil, nil
	}
	if a.cfg.History.Type == "sqlite" {
		if err := a.fs.MkdirAll(dirOf(a.cfg.History.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	return history.Open(ctx, a.cfg.History.Type, a.cfg.History.DSN)
}

// executor builds a sync executor, recording to h when it is not nil.
func (a *app) executor(h *history.Store) *keysync.Executor {
	opts := []keysync.Option{keysync.WithLogger(logging.L)}
	if h != nil {
		opts = append(opts, keysync.WithRecorder(h))
	}
	return keysync.NewExecutor(a.keyFetcher(), a.keyStore(), opts...)
}

func (a *app) manager() *systemd.Manager {
	return systemd.NewManager(a.runner)
}

// warnIfInactive prints a warning when the service that runs scheduled jobs
// is not active.
func (a *app) warnIfInactive(ctx context.Context, skip bool) {
	if skip {
		return
	}
	if !a.manager().IsActive(ctx) {
		_, _ = fmt.Fprintln(a.errOut, i18n.T("cli.service_inactive"))
	}
}

// localUser returns name, or the invoking account when name is empty. The
// account must exist locally.
func (a *app) localUser(name string) (string, error) {
	if name == "" {
		u, err := a.currentUser()
		if err != nil {
			return "", fmt.Errorf("could not determine current user: %w", err)
		}
		name = u
	}
	if strings.ContainsAny(name, "\r\n"+schedule.Delimiter) {
		return "", errors.New(i18n.T("cli.error.unknown_user", name))
	}
	acc, err := a.lookup(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", i18n.T("cli.error.unknown_user", name), err)
	}
	return acc.Name, nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			v, c, d := resolveBuildVersion(nil)
			_, _ = fmt.Fprintf(a.out, "version: %s\n", v)
			_, _ = fmt.Fprintf(a.out, "commit: %s\n", c)
			if d != "" {
				_, _ = fmt.Fprintf(a.out, "built: %s\n", d)
			}
		},
	}
}

func compositeVersion(v, c, d string) string {
	out := v
	if c != "" && c != "dev" {
		out += " (" + c + ")"
	}
	if d != "" {
		out += " built: " + d
	}
	return out
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If info is nil, it reads build info from the
// runtime.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := buildvars.VersionOrDefault(version)
	resolvedCommit := gitCommit
	resolvedDate := buildDate

	if info == nil {
		if local, found := debug.ReadBuildInfo(); found {
			info = local
		}
	}

	if info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		}
		if (resolvedVersion == "dev" || resolvedVersion == "(devel)") && info.Deps != nil {
			for _, dep := range info.Deps {
				if dep.Path == "github.com/toeirei/keysync" && dep.Version != "" {
					resolvedVersion = dep.Version
					break
				}
			}
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					resolvedDate = s.Value
				}
			}
		}
	}

	if resolvedVersion == "dev" && gitCommit != "dev" && gitCommit != "" {
		resolvedVersion = gitCommit
	}
	return resolvedVersion, resolvedCommit, resolvedDate
}
