// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package job

import (
	"errors"
	"fmt"
	"strings"

	clog "github.com/charmbracelet/log"
	cronlib "github.com/robfig/cron/v3"

	"github.com/toeirei/keysync/internal/logging"
	"github.com/toeirei/keysync/internal/schedule"
)

// cronParser accepts descriptors (@daily, @hourly, ...), the standard five
// fields and an optional leading seconds field. Day-of-week follows crontab
// numbering (0 is Sunday).
var cronParser = cronlib.NewParser(
	cronlib.SecondOptional | cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseCron parses a cron expression with the parser used for schedule lines.
// A seven-field expression is accepted when its trailing year field matches
// every year.
func ParseCron(expr string) (cronlib.Schedule, error) {
	fields := strings.Fields(expr)
	if len(fields) == 7 {
		if year := fields[6]; year != "*" && year != "?" {
			return nil, fmt.Errorf("year field %q is not supported, only '*'", year)
		}
		expr = strings.Join(fields[:6], " ")
	}
	return cronParser.Parse(expr)
}

// ErrInvalidCron marks compile errors caused by an unparsable expression.
var ErrInvalidCron = errors.New("invalid cron expression")

// CompileError describes why a single schedule line produced no job.
type CompileError struct {
	Line int
	Text string
	// Expr is set when the cron field was reached but could not be parsed.
	Expr string
	Err  error
}

func (e *CompileError) Error() string {
	if e.Expr != "" {
		return fmt.Sprintf("line %d: cron %q: %v", e.Line, e.Expr, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// AccountPreparer makes sure an account's key file exists. It is satisfied
// by authkeys.FileStore.
type AccountPreparer interface {
	CreateAccountKeyFile(user string) error
}

// Compiler turns schedule lines into jobs.
type Compiler struct {
	accounts AccountPreparer
	log      *clog.Logger
}

// NewCompiler returns a Compiler. accounts may be nil, in which case key
// files are not prepared at compile time. A nil logger selects logging.L.
func NewCompiler(accounts AccountPreparer, logger *clog.Logger) *Compiler {
	return &Compiler{accounts: accounts, log: logging.Or(logger)}
}

// Compile parses the line at the given 1-based position. Blank lines yield
// ok == false and no error.
func (c *Compiler) Compile(lineNo int, line string) (Job, bool, error) {
	entry, ok, err := schedule.ParseLine(line)
	if err != nil {
		return Job{}, false, &CompileError{Line: lineNo, Text: line, Err: err}
	}
	if !ok {
		return Job{}, false, nil
	}

	sched, err := ParseCron(entry.Cron)
	if err == nil {
		if _, every := sched.(cronlib.ConstantDelaySchedule); every {
			err = errors.New("@every intervals have no fixed minute to match")
		}
	}
	if err != nil {
		return Job{}, false, &CompileError{
			Line: lineNo,
			Text: line,
			Expr: entry.Cron,
			Err:  fmt.Errorf("%w: %v", ErrInvalidCron, err),
		}
	}

	if c.accounts != nil {
		if err := c.accounts.CreateAccountKeyFile(entry.User); err != nil {
			// The job is kept; execution will fail and be logged on its own.
			c.log.Error("unable to create authorized keys file", "user", entry.User, "err", err)
		} else {
			c.log.Debug("authorized keys file present", "user", entry.User)
		}
	}

	return Job{
		User:      entry.User,
		SourceURL: entry.URL,
		Expr:      entry.Cron,
		Line:      lineNo,
		Schedule:  sched,
	}, true, nil
}
