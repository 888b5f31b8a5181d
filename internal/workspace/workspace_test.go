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

package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biuc/biu/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestOrchestratorBuildSingleBinary is the S1 scenario: a single BINARY
// with one source and one header, end to end through Orchestrator.Build.
func TestOrchestratorBuildSingleBinary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "BUILD"), `
CC('gcc')
CXX('g++')
CXXFLAGS('-O2')
BINARY(name='app', sources=['a.cc'])
`)
	writeFile(t, filepath.Join(dir, "a.cc"), `#include "a.h"
int main() { return 0; }
`)
	writeFile(t, filepath.Join(dir, "a.h"), "// nothing\n")

	if err := NewOrchestrator().Build(context.Background(), dir); err != nil {
		t.Fatal(err)
	}

	makefilePath := filepath.Join(dir, "Makefile")
	data, err := os.ReadFile(makefilePath)
	if err != nil {
		t.Fatalf("Makefile was not written: %v", err)
	}
	content := string(data)

	name := filepath.Base(dir)
	objTarget := filepath.Join("output", name, "objs", "app", "a.cc.o")
	binTarget := filepath.Join("output", name, "bin", "app")

	if !strings.Contains(content, objTarget+" : a.cc \\\n\ta.h") {
		t.Fatalf("object rule missing expected prereqs:\n%s", content)
	}
	if !strings.Contains(content, binTarget+" : "+objTarget) {
		t.Fatalf("link rule missing object prereq:\n%s", content)
	}
	if !strings.Contains(content, "all : "+binTarget) {
		t.Fatalf("all target missing binary:\n%s", content)
	}

	if _, err := os.Stat(filepath.Join(dir, ".biu", "targets")); err != nil {
		t.Fatalf("cache was not persisted: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".biu", "modules")); err != nil {
		t.Fatalf("modules control file was not written: %v", err)
	}
}

// TestOrchestratorBuildStaticLibrary is the S2 scenario.
func TestOrchestratorBuildStaticLibrary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "BUILD"), `
CC('gcc')
CXX('g++')
LIBRARY(name='libz.a', sources=['z.c'])
`)
	writeFile(t, filepath.Join(dir, "z.c"), "int z() { return 0; }\n")

	if err := NewOrchestrator().Build(context.Background(), dir); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "Makefile"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "ar rcs") {
		t.Fatalf("expected an ar rcs static-library rule:\n%s", content)
	}
	if !strings.Contains(content, "gcc -o") {
		t.Fatalf("expected the C compile branch for a .c source:\n%s", content)
	}
}

// TestOrchestratorBuildSubModule is the S4 scenario: a top workspace
// declares SUBMODULE, the sub workspace is built independently, and the
// top Makefile gets a phony trampoline plus the sub's library as a link
// prerequisite addressed through the parent's own output symlink.
func TestOrchestratorBuildSubModule(t *testing.T) {
	top := t.TempDir()
	sub := filepath.Join(top, "sub")

	writeFile(t, filepath.Join(top, "BUILD"), `
CC('gcc')
CXX('g++')
SUBMODULE('./sub', 'libsub.a')
BINARY(name='app', sources=['a.cc'])
`)
	writeFile(t, filepath.Join(top, "a.cc"), "int main() { return 0; }\n")
	writeFile(t, filepath.Join(sub, "BUILD"), `
CC('gcc')
LIBRARY(name='libsub.a', sources=['s.c'])
`)
	writeFile(t, filepath.Join(sub, "s.c"), "int s() { return 0; }\n")

	if err := NewOrchestrator().Build(context.Background(), top); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(top, "Makefile"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	if !strings.Contains(content, "sub : ; make -C "+sub) && !strings.Contains(content, "sub :\n\tmake -C "+sub) {
		t.Fatalf("expected a sub trampoline rule invoking make -C %s:\n%s", sub, content)
	}
	wantLib := filepath.Join("output", "sub", "lib", "libsub.a")
	if !strings.Contains(content, wantLib) {
		t.Fatalf("expected the top binary rule to depend on %s:\n%s", wantLib, content)
	}

	if _, err := os.Stat(filepath.Join(sub, "Makefile")); err != nil {
		t.Fatalf("sub-workspace Makefile was not generated independently: %v", err)
	}

	link := filepath.Join(top, "output", "sub")
	fi, err := os.Lstat(link)
	if err != nil {
		t.Fatalf("expected an output/sub symlink: %v", err)
	}
	if fi.Mode()&os.ModeSymlink == 0 {
		t.Fatalf("output/sub is not a symlink")
	}

	modules, err := os.ReadFile(filepath.Join(top, ".biu", "modules"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(modules), sub) {
		t.Fatalf("modules control file missing sub-workspace path:\n%s", modules)
	}
}

// TestBuildTwiceIsDeterministic: two back-to-back builds with no input
// change produce byte-identical Makefiles modulo the timestamp comment.
func TestBuildTwiceIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "BUILD"), `
CC('gcc')
CXX('g++')
CXXFLAGS('-O2')
BINARY(name='app', sources=['a.cc'])
`)
	writeFile(t, filepath.Join(dir, "a.cc"), "int main() { return 0; }\n")

	o := NewOrchestrator()
	if err := o.Build(context.Background(), dir); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(filepath.Join(dir, "Makefile"))
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Build(context.Background(), dir); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(filepath.Join(dir, "Makefile"))
	if err != nil {
		t.Fatal(err)
	}

	if stripDateComment(string(first)) != stripDateComment(string(second)) {
		t.Fatalf("Makefile not deterministic across runs:\n--- first\n%s\n--- second\n%s", first, second)
	}
}

// TestProtoDeclarationAppendsGeneratedSources is the analysis half of S5:
// a declared proto contributes its generated .pb.cc to the artifact's
// source list and is recorded for the protoc invocation. protoc itself is
// not run here.
func TestProtoDeclarationAppendsGeneratedSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "BUILD"), `
CC('gcc')
CXX('g++')
BINARY(name='app', sources=['a.cc'], protos=['p/foo.proto'])
`)
	writeFile(t, filepath.Join(dir, "a.cc"), "int main() { return 0; }\n")
	writeFile(t, filepath.Join(dir, "p", "foo.proto"), "syntax = \"proto3\";\n")

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	m := New(dir)
	if err := config.EvalFile(filepath.Join(dir, "BUILD"), m); err != nil {
		t.Fatal(err)
	}

	if len(m.protos) != 1 || m.protos[0] != filepath.Join("p", "foo.proto") {
		t.Fatalf("protos = %v, want [p/foo.proto]", m.protos)
	}
	sources := m.artifacts[0].Sources
	found := false
	for _, s := range sources {
		if s == filepath.Join("p", "foo.pb.cc") {
			found = true
		}
	}
	if !found {
		t.Fatalf("artifact sources missing generated p/foo.pb.cc: %v", sources)
	}
}

// TestOrchestratorCleanRemovesOutputsAndBuildState: after clean, nothing
// is left under ./output or ./.biu and the Makefile is gone.
func TestOrchestratorCleanRemovesOutputsAndBuildState(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "BUILD"), `
CC('gcc')
CXX('g++')
BINARY(name='app', sources=['a.cc'])
`)
	writeFile(t, filepath.Join(dir, "a.cc"), "int main() { return 0; }\n")

	o := NewOrchestrator()
	if err := o.Build(context.Background(), dir); err != nil {
		t.Fatal(err)
	}
	if err := o.Clean(dir); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{"Makefile", ".biu", "output"} {
		if _, err := os.Stat(filepath.Join(dir, p)); !os.IsNotExist(err) {
			t.Fatalf("expected %s to be removed by clean, stat err = %v", p, err)
		}
	}
}
