// Copyright (C) 2013 Tiago Quelhas. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sane

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Credential is one user/password pair for a named backend, as read from
// a ~/.sane/pass-format file.
type Credential struct {
	User     string
	Password string
	Backend  string
}

// PasswordProvider supplies the credential for a resource named by an
// AUTHORIZE challenge. Resource may carry a "$MD5$<salt>" suffix; a
// provider's Lookup receives the resource verbatim and is responsible
// for stripping the suffix itself if it needs the bare backend name
// (PasswordStore.Lookup does this).
type PasswordProvider interface {
	Lookup(resource string) (Credential, bool)
}

// PasswordStore is a PasswordProvider backed by an in-memory table of
// Credentials parsed from a SANE password file.
type PasswordStore struct {
	byBackend map[string]Credential
}

// DefaultPasswordFile returns the default SANE credential file path,
// $HOME/.sane/pass.
func DefaultPasswordFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sane", "pass"), nil
}

// LoadPasswordStore reads a credential file at path in the
// "username:password:backend" format, one record per line. Lines with
// fewer than three colon-separated fields are ignored with a warning.
// If multiple entries name the same backend, the first is kept and later
// duplicates are logged and ignored.
func LoadPasswordStore(path string) (*PasswordStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParsePasswordStore(f)
}

// ParsePasswordStore reads credential records from r; see
// LoadPasswordStore for the line format and duplicate-handling rules.
func ParsePasswordStore(r io.Reader) (*PasswordStore, error) {
	store := &PasswordStore{byBackend: make(map[string]Credential)}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.SplitN(line, ":", 3)
		if len(fields) < 3 {
			defaultLogger.Warn("ignoring malformed credential line", "line", lineNo)
			continue
		}
		cred := Credential{User: fields[0], Password: fields[1], Backend: fields[2]}
		if _, exists := store.byBackend[cred.Backend]; exists {
			defaultLogger.Warn("ignoring duplicate credential", "backend", cred.Backend, "line", lineNo)
			continue
		}
		store.byBackend[cred.Backend] = cred
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("sane: reading credential store: %w", err)
	}
	return store, nil
}

// Lookup returns the credential for the backend named by resource, which
// may carry a "$MD5$<salt>" suffix; the suffix is stripped before the
// lookup.
func (s *PasswordStore) Lookup(resource string) (Credential, bool) {
	backend, _, _ := splitResource(resource)
	cred, ok := s.byBackend[backend]
	return cred, ok
}

// Backends returns every backend name this store holds a credential for,
// in no particular order. It never reveals passwords.
func (s *PasswordStore) Backends() []string {
	names := make([]string, 0, len(s.byBackend))
	for name := range s.byBackend {
		names = append(names, name)
	}
	return names
}
