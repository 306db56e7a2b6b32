// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package job

import (
	"testing"
	"time"
)

func mustJob(t *testing.T, expr string) Job {
	t.Helper()
	s, err := ParseCron(expr)
	if err != nil {
		t.Fatalf("ParseCron(%q): %v", expr, err)
	}
	return Job{User: "alice", SourceURL: "https://example.com/alice.keys", Expr: expr, Schedule: s}
}

func TestJob_Due(t *testing.T) {
	at := func(h, m, s int) time.Time { return time.Date(2026, 3, 10, h, m, s, 0, time.Local) }

	cases := []struct {
		expr string
		now  time.Time
		due  bool
	}{
		{"@daily", at(0, 0, 0), true},
		{"@daily", at(0, 0, 59), true},
		{"@daily", at(0, 1, 0), false},
		{"@hourly", at(13, 0, 42), true},
		{"@hourly", at(13, 30, 0), false},
		{"*/15 * * * *", at(9, 45, 10), true},
		{"*/15 * * * *", at(9, 46, 10), false},
		{"* * * * *", at(17, 3, 0), true},
		// six fields: seconds first, fires once in every minute
		{"30 * * * * *", at(4, 4, 0), true},
		{"0 0 12 * * *", at(12, 0, 20), true},
		{"0 0 12 * * *", at(11, 59, 20), false},
	}
	for _, tc := range cases {
		j := mustJob(t, tc.expr)
		if got := j.Due(tc.now); got != tc.due {
			t.Errorf("%q at %s: Due = %v, want %v", tc.expr, tc.now.Format(time.TimeOnly), got, tc.due)
		}
	}
}

func TestJob_Next(t *testing.T) {
	j := mustJob(t, "@hourly")
	now := time.Date(2026, 3, 10, 13, 15, 0, 0, time.Local)
	want := time.Date(2026, 3, 10, 14, 0, 0, 0, time.Local)
	if got := j.Next(now); !got.Equal(want) {
		t.Fatalf("Next = %s, want %s", got, want)
	}
}
