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

package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		full := filepath.Join(dir, n)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(""), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestExpandPreservesOrderAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.cc", "b.cc", "sub/c.cc")

	patterns := []string{
		filepath.Join(dir, "*.cc"),
		filepath.Join(dir, "a.cc"),
	}
	got, err := Expand(patterns)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "a.cc"),
		filepath.Join(dir, "b.cc"),
		filepath.Join(dir, "a.cc"),
	}
	if len(got) != len(want) {
		t.Fatalf("Expand() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expand()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}
	got := expandTilde("~/foo/bar")
	want := filepath.Join(home, "foo/bar")
	if got != want {
		t.Fatalf("expandTilde() = %q, want %q", got, want)
	}
}

func TestExpandNoMatches(t *testing.T) {
	dir := t.TempDir()
	got, err := Expand([]string{filepath.Join(dir, "*.nope")})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("Expand() = %v, want empty", got)
	}
}
