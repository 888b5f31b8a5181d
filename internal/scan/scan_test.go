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

package scan

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestClosureNoIncludes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.cc")
	write(t, src, "int main() { return 0; }\n")

	got, err := Closure(src, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != src {
		t.Fatalf("Closure() = %v, want [%s]", got, src)
	}
}

// TestClosureTransitive exercises S6: a.cc includes a.h, a.h includes b.h,
// b.h includes nothing. Expected order: [a.cc, a.h, b.h].
func TestClosureTransitive(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.cc")
	write(t, src, `#include "a.h"`+"\n")
	write(t, filepath.Join(dir, "a.h"), `#include "b.h"`+"\n")
	write(t, filepath.Join(dir, "b.h"), "// no includes\n")

	got, err := Closure(src, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{src, filepath.Join(dir, "a.h"), filepath.Join(dir, "b.h")}
	if len(got) != len(want) {
		t.Fatalf("Closure() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Closure()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestClosureIgnoresAngleBracketIncludes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.cc")
	write(t, src, "#include <stdio.h>\n")

	got, err := Closure(src, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("Closure() = %v, want only the source", got)
	}
}

func TestClosureUnresolvedIncludeIsSkippedNotFatal(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.cc")
	write(t, src, `#include "missing.h"`+"\n")

	got, err := Closure(src, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != src {
		t.Fatalf("Closure() = %v, want [%s]", got, src)
	}
}

func TestClosureDedupesSameAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.cc")
	write(t, src, "#include \"x.h\"\n#include \"./x.h\"\n")
	write(t, filepath.Join(dir, "x.h"), "// leaf\n")

	got, err := Closure(src, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Both quoted spellings resolve to the same absolute path, so x.h
	// appears only once in the closure despite two distinct #include
	// spellings.
	if len(got) != 2 {
		t.Fatalf("Closure() = %v, want 2 entries (source + x.h once)", got)
	}
}
