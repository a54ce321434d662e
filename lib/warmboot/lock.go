// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package warmboot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// LockFileName is the lock file created inside the state directory.
const LockFileName = ".lock"

// ErrLocked is returned by Lock when another process holds the state
// directory.
var ErrLocked = errors.New("state directory is locked by another process")

// DirLock is an exclusive advisory lock on a state directory.
type DirLock struct {
	file *os.File
}

// Lock takes an exclusive flock on directory without blocking. The lock
// is released by Unlock or when the process exits.
func Lock(directory string) (*DirLock, error) {
	path := filepath.Join(directory, LockFileName)
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%s: %w", directory, ErrLocked)
		}
		return nil, fmt.Errorf("locking %s: %w", directory, err)
	}
	return &DirLock{file: file}, nil
}

// Unlock releases the lock. Safe to call more than once.
func (l *DirLock) Unlock() error {
	if l.file == nil {
		return nil
	}
	file := l.file
	l.file = nil
	unix.Flock(int(file.Fd()), unix.LOCK_UN)
	return file.Close()
}
