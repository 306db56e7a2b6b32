// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

// Package authkeys reads and appends to the authorized_keys files of local
// accounts.
package authkeys

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/toeirei/keysync/internal/sshkey"
)

// Account is the part of a local account keysync needs.
type Account struct {
	Name string
	Home string
	UID  int
	GID  int
}

// LookupFunc resolves an account name. An empty name means the account the
// process runs as.
type LookupFunc func(name string) (Account, error)

// SystemLookup resolves accounts from the operating system user database.
func SystemLookup(name string) (Account, error) {
	var (
		u   *user.User
		err error
	)
	if name == "" {
		u, err = user.Current()
	} else {
		u, err = user.Lookup(name)
	}
	if err != nil {
		return Account{}, fmt.Errorf("lookup user %q: %w", name, err)
	}
	uid, _ := strconv.Atoi(u.Uid)
	gid, _ := strconv.Atoi(u.Gid)
	return Account{Name: u.Username, Home: u.HomeDir, UID: uid, GID: gid}, nil
}

// FileStore manages ~/.ssh/authorized_keys for local accounts.
type FileStore struct {
	fs     afero.Fs
	lookup LookupFunc
	// chown hands created paths to the account; only meaningful as root.
	chown bool
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithLookup replaces the account resolver.
func WithLookup(fn LookupFunc) Option {
	return func(s *FileStore) { s.lookup = fn }
}

// WithChown forces (or disables) chowning created paths to the account.
func WithChown(enabled bool) Option {
	return func(s *FileStore) { s.chown = enabled }
}

// NewFileStore returns a FileStore on fs. By default accounts are resolved
// through SystemLookup and created paths are chowned when running as root.
func NewFileStore(fs afero.Fs, opts ...Option) *FileStore {
	s := &FileStore{fs: fs, lookup: SystemLookup, chown: os.Geteuid() == 0}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the authorized_keys path for the account.
func (s *FileStore) Path(name string) (string, error) {
	acc, err := s.lookup(name)
	if err != nil {
		return "", err
	}
	return keyFilePath(acc), nil
}

func keyFilePath(acc Account) string {
	return filepath.Join(acc.Home, ".ssh", "authorized_keys")
}

// GetCurrentKeys returns the keys currently authorized for the account. A
// missing file is an empty set.
func (s *FileStore) GetCurrentKeys(name string) (sshkey.Set, error) {
	acc, err := s.lookup(name)
	if err != nil {
		return sshkey.Set{}, err
	}
	data, err := afero.ReadFile(s.fs, keyFilePath(acc))
	if err != nil {
		if os.IsNotExist(err) {
			return sshkey.Set{}, nil
		}
		return sshkey.Set{}, fmt.Errorf("read authorized keys for %s: %w", acc.Name, err)
	}
	keys, err := sshkey.Split(string(data))
	if err != nil {
		return sshkey.Set{}, fmt.Errorf("read authorized keys for %s: %w", acc.Name, err)
	}
	return keys, nil
}

// CreateAccountKeyFile creates ~/.ssh (0700) and ~/.ssh/authorized_keys
// (0600) when missing. It succeeds when both already exist.
func (s *FileStore) CreateAccountKeyFile(name string) error {
	acc, err := s.lookup(name)
	if err != nil {
		return err
	}
	path := keyFilePath(acc)
	dir := filepath.Dir(path)

	if _, err := s.fs.Stat(dir); os.IsNotExist(err) {
		if err := s.fs.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		if err := s.own(dir, acc); err != nil {
			return err
		}
	} else if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}

	if _, err := s.fs.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return s.own(path, acc)
}

func (s *FileStore) own(path string, acc Account) error {
	if !s.chown {
		return nil
	}
	if err := s.fs.Chown(path, acc.UID, acc.GID); err != nil {
		return fmt.Errorf("chown %s to %s: %w", path, acc.Name, err)
	}
	return nil
}

// WriteKeys appends keys to the account's authorized_keys file. Existing
// content is never rewritten. An empty set writes nothing.
func (s *FileStore) WriteKeys(keys sshkey.Set, name string) error {
	if keys.Len() == 0 {
		return nil
	}
	acc, err := s.lookup(name)
	if err != nil {
		return err
	}
	path := keyFilePath(acc)

	existing, err := afero.ReadFile(s.fs, path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", path, err)
	}

	f, err := s.fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var b strings.Builder
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		b.WriteString("\n")
	}
	for _, k := range keys.Keys() {
		b.WriteString(k)
		b.WriteString("\n")
	}
	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("append to %s: %w", path, err)
	}
	return nil
}
