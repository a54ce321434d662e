// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bureau-foundation/switchagent/lib/node"
)

type codedError struct{ code int }

func (e codedError) Error() string { return "coded" }
func (e codedError) ExitCode() int { return e.code }

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), 1},
		{"invariant", fmt.Errorf("loading: %w", node.Invariant("decode port", "unknown speed %q", "X")), ExitInvariant},
		{"coded", fmt.Errorf("wrapped: %w", codedError{code: 7}), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewLoggerFormats(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		terminal bool
		wantJSON bool
	}{
		{"auto on terminal", "auto", true, false},
		{"auto when piped", "auto", false, true},
		{"empty is auto", "", false, true},
		{"forced text", "text", false, false},
		{"forced json", "json", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			logger, err := newLogger(&output, tt.terminal, "info", tt.format)
			if err != nil {
				t.Fatalf("newLogger: %v", err)
			}
			logger.Info("hello", "port", 1)
			isJSON := json.Valid(bytes.TrimSpace(output.Bytes()))
			if isJSON != tt.wantJSON {
				t.Errorf("output %q: JSON = %v, want %v", output.String(), isJSON, tt.wantJSON)
			}
		})
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var output bytes.Buffer
	logger, err := newLogger(&output, false, "warn", "json")
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept")
	if strings.Contains(output.String(), "dropped") || !strings.Contains(output.String(), "kept") {
		t.Errorf("output = %q", output.String())
	}
}

func TestNewLoggerRejectsInvalid(t *testing.T) {
	if _, err := newLogger(&bytes.Buffer{}, false, "loud", "json"); err == nil {
		t.Error("invalid level accepted")
	}
	if _, err := newLogger(&bytes.Buffer{}, false, "info", "xml"); err == nil {
		t.Error("invalid format accepted")
	}
}
