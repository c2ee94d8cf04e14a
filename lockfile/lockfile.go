// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package lockfile implements the cooperative data-directory lock: a
// second process started against a directory already locked by a running
// instance fails fast instead of racing it for the header snapshot.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Lock holds an exclusive, advisory lock on a data directory for the
// lifetime of the process that acquired it. The zero value is not usable;
// construct one with Acquire.
type Lock struct {
	file *os.File
}

// Acquire takes an exclusive, non-blocking flock on "<dir>/.lock",
// creating the file if necessary. If the directory is already locked by
// another process, it returns ErrLocked immediately rather than blocking.
func Acquire(dir string) (*Lock, error) {
	path := filepath.Join(dir, ".lock")

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("lockfile: open %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("lockfile: flock %s: %w", path, err)
	}

	return &Lock{file: f}, nil
}

// Release drops the lock. The lock is also released if the holding
// process exits or crashes, since flock locks do not outlive the file
// descriptors that hold them.
func (l *Lock) Release() error {
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		l.file.Close()
		return fmt.Errorf("lockfile: unlock: %w", err)
	}
	return l.file.Close()
}

// ErrLocked is returned by Acquire when another process already holds the
// lock on the requested directory.
var ErrLocked = fmt.Errorf("lockfile: data directory is locked by another process")
