// Copyright 2026 The Biu Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pathutil expands user-supplied source/include patterns into
// concrete file lists: tilde expansion followed by a POSIX glob.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Expand resolves each pattern in order, concatenating per-pattern glob
// results. Duplicates across patterns are preserved; callers that need a
// deduplicated set are responsible for that themselves.
func Expand(patterns []string) ([]string, error) {
	var out []string
	for _, pat := range patterns {
		expanded, err := expandOne(pat)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func expandOne(pat string) ([]string, error) {
	pat = expandTilde(pat)
	matches, err := filepath.Glob(pat)
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// expandTilde rewrites a leading "~/" to the invoking user's home directory.
// Only that form is recognized; "~user/..." is left untouched, matching the
// original tool's behavior.
func expandTilde(pat string) string {
	if !strings.HasPrefix(pat, "~/") {
		return pat
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return pat
	}
	return filepath.Join(home, pat[len("~/"):])
}
