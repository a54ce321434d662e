// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package warmboot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/switchagent/lib/switchstate"
)

// FileName is the state file inside the state directory.
const FileName = "switch_state"

// Path returns the state file path inside directory.
func Path(directory string) string {
	return filepath.Join(directory, FileName)
}

// Save writes state to path atomically. The file is created with mode
// 0600. The parent directory must already exist.
func Save(path string, state *switchstate.SwitchState, options Options) error {
	data, err := Encode(state, options)
	if err != nil {
		return err
	}

	temporaryPath := path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating temporary state file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary state file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary state file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary state file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming state file into place: %w", err)
	}

	// The rename is only durable once the directory entry is flushed.
	parentDirectory, err := os.Open(filepath.Dir(path))
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}
	return nil
}

// ReadEnvelope reads and parses the envelope at path without decoding
// the payload. When the file does not exist, the returned error wraps
// os.ErrNotExist.
func ReadEnvelope(path string) (*Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	envelope, err := DecodeEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return envelope, nil
}

// Load reads the state file at path and returns the unpublished state
// it carries. When the file does not exist, the returned error wraps
// os.ErrNotExist.
func Load(path string, logger *slog.Logger) (*switchstate.SwitchState, error) {
	envelope, err := ReadEnvelope(path)
	if err != nil {
		return nil, err
	}
	state, err := envelope.State(logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return state, nil
}

// ExportJSON renders state as indented JSON in its persisted form.
func ExportJSON(state *switchstate.SwitchState) ([]byte, error) {
	data, err := json.MarshalIndent(state.ToPersisted(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("exporting switch state: %w", err)
	}
	return append(data, '\n'), nil
}
