// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package daemon

import (
	"context"
	"time"
)

// Clock provides an abstraction over time.Now and sleeping for testability.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}
