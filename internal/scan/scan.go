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

// Package scan implements the C-preprocessor-aware include scanner: given a
// source file and an ordered list of include directories, it computes the
// transitive closure of quote-form (#include "...") headers, used as Make
// prerequisites so editing a header invalidates every object that depends
// on it.
package scan

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/golang/glog"
	"github.com/samber/lo"
)

var includeRE = regexp.MustCompile(`(?m)^#include\s+"([^"]+)"`)

// Closure returns the header closure for source: source itself first,
// followed by each transitively-included header in BFS discovery order.
// Angle-bracket includes are assumed to be system headers and are never
// matched. An include directory list is not shared across scans of
// different sources belonging to different scopes, because two scopes'
// include paths may resolve the same header name to different files.
func Closure(source string, includeDirs []string) ([]string, error) {
	dirs := append([]string{}, includeDirs...)
	if parent := filepath.Dir(source); parent != "" {
		dirs = append(dirs, parent)
	}

	var prereqs []string
	seen := map[string]bool{source: true}
	queue := []string{source}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		prereqs = append(prereqs, cur)

		contents, err := os.ReadFile(cur)
		if err != nil {
			return nil, err
		}
		for _, m := range includeRE.FindAllSubmatch(contents, -1) {
			header := string(m[1])
			resolved, ok := resolve(header, dirs)
			if !ok {
				// Unresolved quoted includes are silently skipped:
				// system builds often compile with additional -I dirs
				// not declared to this tool.
				glog.V(2).Infof("scan %s: unresolved include %q", cur, header)
				continue
			}
			// Dedupe on the resolved path, not the quoted spelling, so
			// two different relative forms of the same header are only
			// ever enqueued once.
			if seen[resolved] {
				continue
			}
			seen[resolved] = true
			queue = append(queue, resolved)
		}
	}
	glog.V(2).Infof("scan %s: %d prereqs", source, len(prereqs))
	return lo.Uniq(prereqs), nil
}

// resolve probes each include directory in order; the first existing path
// wins.
func resolve(header string, dirs []string) (string, bool) {
	for _, dir := range dirs {
		candidate := filepath.Join(dir, header)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}
