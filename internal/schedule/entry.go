// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package schedule

import (
	"errors"
	"fmt"
	"strings"
)

// Delimiter separates the fields of a persisted schedule line. It cannot be
// escaped.
const Delimiter = "|"

// ErrArity is returned for lines that do not split into exactly three fields.
var ErrArity = errors.New("expected exactly three fields: user|cron|url")

// Entry is one persisted schedule line: a local account, a cron expression
// and the URL its keys are fetched from.
type Entry struct {
	User string
	Cron string
	URL  string
}

// String renders the entry in its persisted form.
func (e Entry) String() string {
	return strings.Join([]string{e.User, e.Cron, e.URL}, Delimiter)
}

// Validate reports whether e can be persisted as a single schedule line: no
// field may be empty or contain the delimiter or a line break.
func (e Entry) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"user", e.User}, {"cron", e.Cron}, {"url", e.URL},
	} {
		switch {
		case f.value == "":
			return fmt.Errorf("empty %s field", f.name)
		case strings.ContainsAny(f.value, "\r\n"):
			return fmt.Errorf("%s field contains a line break", f.name)
		case strings.Contains(f.value, Delimiter):
			return fmt.Errorf("%s field contains %q", f.name, Delimiter)
		}
	}
	return nil
}

// ParseLine splits a persisted line into an Entry. Blank lines yield
// ok == false and no error. Field contents are trimmed; the cron expression
// is not validated here.
func ParseLine(line string) (e Entry, ok bool, err error) {
	if strings.TrimSpace(line) == "" {
		return Entry{}, false, nil
	}
	fields := strings.Split(line, Delimiter)
	if len(fields) != 3 {
		return Entry{}, false, fmt.Errorf("%w (got %d)", ErrArity, len(fields))
	}
	e = Entry{
		User: strings.TrimSpace(fields[0]),
		Cron: strings.TrimSpace(fields[1]),
		URL:  strings.TrimSpace(fields[2]),
	}
	if err := e.Validate(); err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}
