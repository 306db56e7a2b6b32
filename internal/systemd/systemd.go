// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

// Package systemd installs and controls the keysync service unit.
package systemd

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ServiceName is the unit name without the .service suffix.
const ServiceName = "keysync"

// DefaultUnitPath is where Install writes the unit by default.
const DefaultUnitPath = "/etc/systemd/system/" + ServiceName + ".service"

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// UnitContent renders the service unit for the binary at execPath.
func UnitContent(execPath string) string {
	return fmt.Sprintf(`[Unit]
Description=keysync SSH public key synchronization
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart=%s daemon
Restart=on-failure
RestartSec=10

[Install]
WantedBy=multi-user.target
`, execPath)
}

// Install writes the unit file to path, replacing an existing one.
func Install(fs afero.Fs, path, execPath string) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create unit directory: %w", err)
	}
	if err := afero.WriteFile(fs, path, []byte(UnitContent(execPath)), 0o644); err != nil {
		return fmt.Errorf("failed to write unit file: %w", err)
	}
	return nil
}

// Manager talks to systemctl.
type Manager struct {
	run Runner
}

// NewManager returns a Manager using run (ExecRunner when nil).
func NewManager(run Runner) *Manager {
	if run == nil {
		run = ExecRunner
	}
	return &Manager{run: run}
}

// Enable reloads the unit files and enables and starts the service.
func (m *Manager) Enable(ctx context.Context) error {
	if out, err := m.run(ctx, "systemctl", "daemon-reload"); err != nil {
		return fmt.Errorf("systemctl daemon-reload: %w: %s", err, strings.TrimSpace(string(out)))
	}
	if out, err := m.run(ctx, "systemctl", "enable", "--now", ServiceName); err != nil {
		return fmt.Errorf("systemctl enable %s: %w: %s", ServiceName, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// IsActive reports whether the service is running. Any failure to ask
// systemctl counts as not active.
func (m *Manager) IsActive(ctx context.Context) bool {
	out, err := m.run(ctx, "systemctl", "is-active", ServiceName)
	if err != nil {
		return false
	}
	return bytes.Equal(bytes.TrimSpace(out), []byte("active"))
}
