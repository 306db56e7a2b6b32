// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the keysync command-line interface using Cobra.
// Commands stay thin: they resolve configuration and delegate to the schedule,
// keysync, daemon, history and systemd packages.
package cli
