// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// renderTable draws rows under headers. Styling is only applied on a
// terminal; redirected output stays plain. highlight marks rows to render
// in the failure color.
func renderTable(w io.Writer, headers []string, rows [][]string, highlight func(row int) bool) string {
	styled := isTerminal(w)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		BorderColumn(false).
		BorderLeft(false).
		BorderRight(false).
		BorderTop(false).
		BorderBottom(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if !styled {
				return cellStyle
			}
			if row == table.HeaderRow {
				return headerStyle
			}
			if highlight != nil && highlight(row) {
				return failedStyle
			}
			return cellStyle
		})
	return t.Render()
}

func dirOf(path string) string {
	return filepath.Dir(path)
}
