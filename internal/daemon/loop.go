// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

// Package daemon runs the keysync schedule engine: it polls the persisted
// schedule for changes, rebuilds the job registry when it changed and runs
// the jobs that are due, once per poll interval, on a single goroutine.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	clog "github.com/charmbracelet/log"

	"github.com/toeirei/keysync/internal/job"
	"github.com/toeirei/keysync/internal/keysync"
	"github.com/toeirei/keysync/internal/logging"
	"github.com/toeirei/keysync/internal/schedule"
)

// DefaultInterval is the time between two polls.
const DefaultInterval = 60 * time.Second

// Loop is the daemon control loop.
type Loop struct {
	store    schedule.Store
	compiler *job.Compiler
	engine   *TickEngine
	interval time.Duration
	clock    Clock
	log      *clog.Logger

	registry atomic.Pointer[job.Registry]
	// version is only touched by the loop goroutine.
	version schedule.Version
}

// Option configures a Loop.
type Option func(*Loop)

// WithInterval sets the poll interval (DefaultInterval when not positive).
func WithInterval(d time.Duration) Option {
	return func(l *Loop) { l.interval = d }
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(l *Loop) { l.clock = c }
}

// WithLogger sets the logger (logging.L by default).
func WithLogger(lg *clog.Logger) Option {
	return func(l *Loop) { l.log = lg }
}

// NewLoop wires a loop from its collaborators.
func NewLoop(store schedule.Store, compiler *job.Compiler, engine *TickEngine, opts ...Option) *Loop {
	l := &Loop{
		store:    store,
		compiler: compiler,
		engine:   engine,
		interval: DefaultInterval,
		clock:    SystemClock,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.interval <= 0 {
		l.interval = DefaultInterval
	}
	l.log = logging.Or(l.log)
	return l
}

// Registry returns the currently published registry (nil before Bootstrap).
func (l *Loop) Registry() *job.Registry { return l.registry.Load() }

// Bootstrap makes sure the schedule exists, builds the first registry and
// records the schedule version. Any error is fatal to the daemon.
func (l *Loop) Bootstrap(ctx context.Context) error {
	if err := l.store.EnsureExists(); err != nil {
		return fmt.Errorf("schedule storage unavailable: %w", err)
	}
	version, err := l.store.Version()
	if err != nil {
		return fmt.Errorf("schedule storage unavailable: %w", err)
	}
	lines, err := l.store.ReadLines()
	if err != nil {
		return fmt.Errorf("schedule storage unavailable: %w", err)
	}
	l.registry.Store(job.Rebuild(lines, l.compiler))
	l.version = version
	l.log.Info("daemon bootstrapped", "jobs", l.Registry().Len(), "version", version)
	return nil
}

// Poll runs one cycle: rebuild the registry if the schedule version moved,
// then tick the registry at the current time. Schedule read errors keep the
// previous registry in service; the next poll retries.
func (l *Loop) Poll(ctx context.Context) []keysync.Outcome {
	l.refresh()
	return l.engine.Tick(ctx, l.Registry(), l.clock.Now())
}

func (l *Loop) refresh() {
	version, err := l.store.Version()
	if err != nil {
		l.log.Error("unable to read schedule version", "err", err)
		return
	}
	if version.Equal(l.version) {
		return
	}
	lines, err := l.store.ReadLines()
	if err != nil {
		l.log.Error("unable to read schedule", "err", err)
		return
	}
	l.log.Info("schedule changed, rebuilding jobs", "version", version)
	l.registry.Store(job.Rebuild(lines, l.compiler))
	l.version = version
}

// Run bootstraps and then polls every interval until ctx is done. It only
// returns with a bootstrap error or when ctx is cancelled (process
// termination).
func (l *Loop) Run(ctx context.Context) error {
	if err := l.Bootstrap(ctx); err != nil {
		return err
	}
	l.log.Info("daemon started", "interval", l.interval)
	for {
		l.Poll(ctx)
		if err := l.clock.Sleep(ctx, l.interval); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				l.log.Info("daemon stopped")
				return nil
			}
			return err
		}
	}
}
