// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package daemon

import (
	"bytes"
	"context"
	"time"

	clog "github.com/charmbracelet/log"

	"github.com/toeirei/keysync/internal/job"
	"github.com/toeirei/keysync/internal/keysync"
	"github.com/toeirei/keysync/internal/schedule"
)

type fakeStore struct {
	lines      []string
	version    time.Time
	ensureErr  error
	readErr    error
	versionErr error
	reads      int
}

func (s *fakeStore) EnsureExists() error { return s.ensureErr }

func (s *fakeStore) ReadLines() ([]string, error) {
	s.reads++
	if s.readErr != nil {
		return nil, s.readErr
	}
	return append([]string(nil), s.lines...), nil
}

func (s *fakeStore) Version() (schedule.Version, error) {
	if s.versionErr != nil {
		return schedule.Version{}, s.versionErr
	}
	return schedule.VersionAt(s.version), nil
}

// write replaces the schedule and bumps its modification marker.
func (s *fakeStore) write(lines ...string) {
	s.lines = lines
	s.version = s.version.Add(time.Second)
}

type fakeExec struct {
	ran  []string
	fail map[string]bool
}

func (e *fakeExec) Execute(_ context.Context, j job.Job) keysync.Outcome {
	e.ran = append(e.ran, j.User)
	if e.fail[j.User] {
		return keysync.Outcome{User: j.User, State: keysync.StateFailed, FailedIn: keysync.StateFetching}
	}
	return keysync.Outcome{User: j.User, State: keysync.StateDone}
}

// fakeClock advances on Sleep and cancels the run after maxSleeps sleeps.
type fakeClock struct {
	now       time.Time
	sleeps    []time.Duration
	maxSleeps int
	cancel    context.CancelFunc
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	if c.maxSleeps > 0 && len(c.sleeps) >= c.maxSleeps && c.cancel != nil {
		c.cancel()
	}
	return ctx.Err()
}

func testLogger() (*clog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := clog.New(&buf)
	l.SetLevel(clog.DebugLevel)
	return l, &buf
}

func localTime(h, m, s int) time.Time {
	return time.Date(2026, 3, 10, h, m, s, 0, time.Local)
}
