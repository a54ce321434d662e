// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	tests := []struct {
		name   string
		commit string
		dirty  string
		want   string
	}{
		{name: "clean", commit: "abc1234", dirty: "false", want: "1.2.3 (abc1234, 2026-01-01T00:00:00Z)"},
		{name: "dirty", commit: "abc1234", dirty: "true", want: "1.2.3 (abc1234-dirty, 2026-01-01T00:00:00Z)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			savedVersion, savedCommit, savedDirty, savedTime := Version, GitCommit, GitDirty, BuildTime
			t.Cleanup(func() { Version, GitCommit, GitDirty, BuildTime = savedVersion, savedCommit, savedDirty, savedTime })

			Version, GitCommit, GitDirty, BuildTime = "1.2.3", tt.commit, tt.dirty, "2026-01-01T00:00:00Z"
			if got := Info(); got != tt.want {
				t.Errorf("Info() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFull(t *testing.T) {
	full := Full()
	if !strings.HasPrefix(full, Info()) || !strings.Contains(full, runtime.Version()) {
		t.Errorf("Full() = %q", full)
	}
}
