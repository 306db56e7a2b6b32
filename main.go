// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for keysync.
//
// Usage:
//
//	keysync get <username> [flags]
//	keysync set <username> Daily [flags]
//	keysync daemon
//
// See --help for all commands and options.
package main

import (
	"os"

	"github.com/toeirei/keysync/internal/logging"
	"github.com/toeirei/keysync/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		logging.Errorf("keysync: %v", err)
		os.Exit(1)
	}
}
