// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

// Package job compiles persisted schedule lines into executable jobs and
// holds the immutable set of active jobs the daemon ticks over.
package job

import (
	"time"

	cronlib "github.com/robfig/cron/v3"
)

// Job is one compiled schedule entry. It carries no run state: whether it
// is due is derived from the cron schedule and the current time only.
type Job struct {
	User      string
	SourceURL string
	// Expr is the cron expression as written in the schedule.
	Expr string
	// Line is the 1-based line number in the schedule file.
	Line     int
	Schedule cronlib.Schedule
}

// Due reports whether the job's schedule has an activation inside the
// minute that contains now.
func (j Job) Due(now time.Time) bool {
	start := now.Truncate(time.Minute)
	next := j.Schedule.Next(start.Add(-time.Nanosecond))
	return !next.IsZero() && next.Before(start.Add(time.Minute))
}

// Next returns the next activation strictly after now.
func (j Job) Next(now time.Time) time.Time {
	return j.Schedule.Next(now)
}
