// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package job

// Registry is an immutable, ordered set of jobs. A new Registry replaces the
// old one as a whole; there is no per-job update.
type Registry struct {
	jobs []Job
}

// NewRegistry returns a registry holding a copy of jobs.
func NewRegistry(jobs []Job) *Registry {
	cp := make([]Job, len(jobs))
	copy(cp, jobs)
	return &Registry{jobs: cp}
}

// Jobs returns a copy of the jobs in schedule order.
func (r *Registry) Jobs() []Job {
	if r == nil {
		return nil
	}
	out := make([]Job, len(r.jobs))
	copy(out, r.jobs)
	return out
}

// Len returns the number of jobs.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.jobs)
}

// Rebuild compiles every line and returns a fresh registry with the jobs
// that compiled, in line order. Compile errors are logged and skipped.
func Rebuild(lines []string, c *Compiler) *Registry {
	c.log.Info("scheduling jobs", "lines", len(lines))
	jobs := make([]Job, 0, len(lines))
	for i, line := range lines {
		j, ok, err := c.Compile(i+1, line)
		if err != nil {
			c.log.Warn("skipping schedule entry", "err", err)
			continue
		}
		if !ok {
			continue
		}
		c.log.Info("scheduled job", "user", j.User, "cron", j.Expr, "url", j.SourceURL)
		jobs = append(jobs, j)
	}
	return &Registry{jobs: jobs}
}
