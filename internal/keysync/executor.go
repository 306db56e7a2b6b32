// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

// Package keysync runs one key synchronization: fetch the remote keys of a
// job, diff them against the account's authorized_keys and append what is
// missing.
package keysync

import (
	"context"
	"time"

	clog "github.com/charmbracelet/log"

	"github.com/toeirei/keysync/internal/fetch"
	"github.com/toeirei/keysync/internal/job"
	"github.com/toeirei/keysync/internal/logging"
	"github.com/toeirei/keysync/internal/sshkey"
)

// State is a step of a single synchronization.
type State string

const (
	StateFetching State = "fetching"
	StateDiffing  State = "diffing"
	StateWriting  State = "writing"
	StateDone     State = "done"
	StateFailed   State = "failed"
)

// FileStore is the account key file collaborator.
type FileStore interface {
	GetCurrentKeys(user string) (sshkey.Set, error)
	CreateAccountKeyFile(user string) error
	WriteKeys(keys sshkey.Set, user string) error
}

// Recorder keeps a trail of outcomes. Recording errors never fail a sync.
type Recorder interface {
	Record(ctx context.Context, o Outcome) error
}

// Outcome is the result of one execution.
type Outcome struct {
	User      string
	SourceURL string
	// State is StateDone or StateFailed.
	State State
	// FailedIn is the step that failed; empty unless State is StateFailed.
	FailedIn  State
	Added     int
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// Executor synchronizes keys for jobs.
type Executor struct {
	fetcher  fetch.Fetcher
	files    FileStore
	recorder Recorder
	log      *clog.Logger
	now      func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithRecorder records every outcome.
func WithRecorder(r Recorder) Option {
	return func(e *Executor) { e.recorder = r }
}

// WithLogger sets the logger (logging.L by default).
func WithLogger(l *clog.Logger) Option {
	return func(e *Executor) { e.log = l }
}

// WithClock replaces time.Now for outcome timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// NewExecutor returns an Executor using fetcher and files.
func NewExecutor(fetcher fetch.Fetcher, files FileStore, opts ...Option) *Executor {
	e := &Executor{fetcher: fetcher, files: files, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	e.log = logging.Or(e.log)
	return e
}

// Execute runs the fetch, diff and write steps for j. Every failure is
// contained in the returned Outcome.
func (e *Executor) Execute(ctx context.Context, j job.Job) Outcome {
	o := e.run(ctx, j.User, j.SourceURL)
	if e.recorder != nil {
		if err := e.recorder.Record(ctx, o); err != nil {
			e.log.Warn("unable to record sync outcome", "user", o.User, "err", err)
		}
	}
	return o
}

// Sync runs one synchronization outside the daemon (the get and set --now
// commands). It behaves exactly like Execute.
func (e *Executor) Sync(ctx context.Context, user, url string) Outcome {
	return e.Execute(ctx, job.Job{User: user, SourceURL: url})
}

// Plan fetches and diffs without writing and returns the keys that would be
// appended.
func (e *Executor) Plan(ctx context.Context, user, url string) (sshkey.Set, error) {
	fetched, err := e.fetch(ctx, url)
	if err != nil {
		return sshkey.Set{}, err
	}
	existing, err := e.files.GetCurrentKeys(user)
	if err != nil {
		return sshkey.Set{}, err
	}
	return fetched.Difference(existing), nil
}

func (e *Executor) fetch(ctx context.Context, url string) (sshkey.Set, error) {
	raw, err := e.fetcher.GetKeys(ctx, url)
	if err != nil {
		return sshkey.Set{}, err
	}
	return sshkey.Split(raw)
}

func (e *Executor) run(ctx context.Context, user, url string) Outcome {
	start := e.now()
	o := Outcome{User: user, SourceURL: url, StartedAt: start}
	fail := func(step State, err error, msg string) Outcome {
		o.State = StateFailed
		o.FailedIn = step
		o.Err = err
		o.Duration = e.now().Sub(start)
		e.log.Error(msg, "user", user, "url", url, "err", err)
		return o
	}

	state := StateFetching
	e.log.Debug("sync step", "user", user, "state", state)
	fetched, err := e.fetch(ctx, url)
	if err != nil {
		return fail(state, err, "failed to fetch keys")
	}

	state = StateDiffing
	e.log.Debug("sync step", "user", user, "state", state, "fetched", fetched.Len())
	existing, err := e.files.GetCurrentKeys(user)
	if err != nil {
		return fail(state, err, "failed to read current keys")
	}
	toAdd := fetched.Difference(existing)

	state = StateWriting
	e.log.Debug("sync step", "user", user, "state", state, "to_add", toAdd.Len())
	if err := e.files.CreateAccountKeyFile(user); err != nil {
		return fail(state, err, "failed to create authorized keys file")
	}
	if err := e.files.WriteKeys(toAdd, user); err != nil {
		return fail(state, err, "failed to write keys to file")
	}

	o.State = StateDone
	o.Added = toAdd.Len()
	o.Duration = e.now().Sub(start)
	e.log.Info("keys synchronized", "user", user, "added", o.Added, "url", url)
	return o
}
