// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

// Package sshkey provides helpers for handling public key lines as they appear
// in authorized_keys files and in the plain-text key listings served by key
// providers.
package sshkey

import (
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// Key is a parsed authorized_keys line.
type Key struct {
	Algorithm   string
	Fingerprint string
	Comment     string
	Options     []string
	// Data is the base64 wire encoding of the key.
	Data string
}

// Parse decodes one authorized_keys line, leading options included
// (from="...",command="...").
func Parse(line string) (Key, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Key{}, fmt.Errorf("empty line")
	}
	pk, comment, options, _, err := ssh.ParseAuthorizedKey([]byte(line))
	if err != nil {
		return Key{}, fmt.Errorf("parse public key: %w", err)
	}
	return Key{
		Algorithm:   pk.Type(),
		Fingerprint: ssh.FingerprintSHA256(pk),
		Comment:     comment,
		Options:     options,
		Data:        base64.StdEncoding.EncodeToString(pk.Marshal()),
	}, nil
}

// Fingerprint returns the SHA256 fingerprint of the key on the given line,
// in the same "SHA256:..." form ssh-keygen -l prints.
func Fingerprint(line string) (string, error) {
	k, err := Parse(line)
	if err != nil {
		return "", err
	}
	return k.Fingerprint, nil
}

// Describe renders a short summary of a key line: algorithm, fingerprint and
// comment.
func Describe(line string) string {
	k, err := Parse(line)
	if err != nil {
		return "invalid key"
	}
	if k.Comment == "" {
		return fmt.Sprintf("%s %s", k.Algorithm, k.Fingerprint)
	}
	return fmt.Sprintf("%s %s (%s)", k.Algorithm, k.Fingerprint, k.Comment)
}
