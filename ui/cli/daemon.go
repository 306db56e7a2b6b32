// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/toeirei/keysync/internal/daemon"
	"github.com/toeirei/keysync/internal/i18n"
	"github.com/toeirei/keysync/internal/job"
	"github.com/toeirei/keysync/internal/logging"
	"github.com/toeirei/keysync/internal/systemd"
)

func newDaemonCmd(a *app) *cobra.Command {
	var install, enable bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the job daemon (systemd manages it for you)",
		Long: `Runs the scheduled jobs: the schedule is re-read when it changes and due
jobs are synced once per minute. With --install and/or --enable it installs
the systemd unit and enables the service instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if install || enable {
				return a.setupService(ctx, install, enable)
			}
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.runDaemon(ctx)
		},
	}
	cmd.Flags().BoolVar(&install, "install", false, "Install the systemd service file")
	cmd.Flags().BoolVar(&enable, "enable", false, "Enable and start the keysync service")
	return cmd
}

func (a *app) setupService(ctx context.Context, install, enable bool) error {
	if install {
		exe, err := a.executable()
		if err != nil {
			return fmt.Errorf("could not determine executable path: %w", err)
		}
		if err := systemd.Install(a.fs, a.unitPath, exe); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(a.out, i18n.T("cli.daemon.installed", a.unitPath))
	}
	if enable {
		if err := a.manager().Enable(ctx); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(a.out, i18n.T("cli.daemon.enabled"))
	}
	return nil
}

// runDaemon wires the schedule engine and blocks until ctx is cancelled or
// bootstrapping fails.
func (a *app) runDaemon(ctx context.Context) error {
	h, err := a.openHistory(ctx)
	if err != nil {
		// History is optional; the daemon runs without it.
		logging.Warnf("run history unavailable, continuing without it: %v", err)
		h = nil
	}
	if h != nil {
		defer func() { _ = h.Close() }()
	}

	logging.Infof("daemon starting: schedule=%s interval=%s", a.cfg.Schedule.Path, a.cfg.Daemon.Interval)
	keys := a.keyStore()
	loop := daemon.NewLoop(
		a.scheduleStore(),
		job.NewCompiler(keys, logging.L),
		daemon.NewTickEngine(a.executor(h)),
		daemon.WithInterval(a.cfg.Daemon.Interval),
		daemon.WithLogger(logging.L),
	)
	return loop.Run(ctx)
}
