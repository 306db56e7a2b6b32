// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package daemon

import (
	"context"
	"time"

	"github.com/toeirei/keysync/internal/job"
	"github.com/toeirei/keysync/internal/keysync"
)

// Executor runs one due job. *keysync.Executor satisfies it.
type Executor interface {
	Execute(ctx context.Context, j job.Job) keysync.Outcome
}

// TickEngine runs the jobs of a registry that are due at a given instant.
type TickEngine struct {
	exec Executor
}

// NewTickEngine returns a TickEngine executing due jobs with exec.
func NewTickEngine(exec Executor) *TickEngine {
	return &TickEngine{exec: exec}
}

// Tick evaluates every job in registry order and executes the due ones
// synchronously, one after the other. A slow job delays the jobs after it
// but never causes them to be skipped.
func (t *TickEngine) Tick(ctx context.Context, reg *job.Registry, now time.Time) []keysync.Outcome {
	var outcomes []keysync.Outcome
	for _, j := range reg.Jobs() {
		if !j.Due(now) {
			continue
		}
		outcomes = append(outcomes, t.exec.Execute(ctx, j))
	}
	return outcomes
}
