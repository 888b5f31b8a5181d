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

// Package rule is the tagged-union rule model: Compile, Link, Static,
// Shared, Phony, and Clean rules, plus their deterministic command-line
// templates and target naming.
package rule

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Kind distinguishes a translation unit's compiler.
type Kind int

const (
	// C dispatches to the cc compiler.
	C Kind = iota
	// CXX dispatches to the cxx compiler.
	CXX
)

// KindForSource returns C for a ".c" source, CXX otherwise.
func KindForSource(source string) Kind {
	if strings.HasSuffix(source, ".c") {
		return C
	}
	return CXX
}

// Rule is the common surface every rule variant implements: a Make target
// line and the commands needed to produce it.
type Rule interface {
	// Target is the rule's output (a file path, or a phony name).
	Target() string
	// Prereqs are the rule's Make prerequisites, in order.
	Prereqs() []string
	// Command is the shell command that produces Target, or "" for rules
	// with no recipe (e.g. a dependency-only phony).
	Command() string
	// IsObject reports whether this rule compiles a single source to a
	// single object file. The target cache treats object and link rules
	// differently during cascade invalidation.
	IsObject() bool
}

type baseRule struct {
	target   string
	prereqs  []string
	command  string
	isObject bool
}

func (r baseRule) Target() string    { return r.target }
func (r baseRule) Prereqs() []string { return append([]string(nil), r.prereqs...) }
func (r baseRule) Command() string   { return r.command }
func (r baseRule) IsObject() bool    { return r.isObject }

// ObjectTarget returns the deterministic object-file path for a source
// compiled as part of a given artifact: <outputRoot>/objs/<artifact>/<source>.o.
// Encoding both the source and the owning artifact in the path lets two
// artifacts independently compile the same source under different flags
// without collision.
func ObjectTarget(outputRoot, artifact, source string) string {
	return filepath.Join(outputRoot, "objs", artifact, source+".o")
}

// BinaryTarget returns <outputRoot>/bin/<name>.
func BinaryTarget(outputRoot, name string) string {
	return filepath.Join(outputRoot, "bin", name)
}

// TestTarget returns <outputRoot>/test/<name>. TEST artifacts always land
// here, never under bin/.
func TestTarget(outputRoot, name string) string {
	return filepath.Join(outputRoot, "test", name)
}

// LibraryTarget returns <outputRoot>/lib/<name>; name already carries the
// .a or .so suffix.
func LibraryTarget(outputRoot, name string) string {
	return filepath.Join(outputRoot, "lib", name)
}

// CompileArgs bundles the rendered scope values a Compile rule's command
// template needs.
type CompileArgs struct {
	CC       string
	CXX      string
	CFlags   string
	CXXFlags string
	Includes string
}

// NewCompile builds the Compile rule for one source within one artifact.
// Dispatch between the C and C++ templates is by source suffix.
func NewCompile(outputRoot, artifact, source string, prereqs []string, a CompileArgs) Rule {
	target := ObjectTarget(outputRoot, artifact, source)
	var command string
	switch KindForSource(source) {
	case C:
		command = fmt.Sprintf("%s -o %s -c %s %s %s", a.CC, target, a.CFlags, a.Includes, source)
	default:
		command = fmt.Sprintf("%s -o %s -c %s %s %s", a.CXX, target, a.CXXFlags, a.Includes, source)
	}
	return baseRule{target: target, prereqs: prereqs, command: normalizeSpaces(command), isObject: true}
}

// LinkArgs bundles the rendered scope values a Link/Shared rule's command
// template needs.
type LinkArgs struct {
	CXX     string
	LDFlags string
	LDLibs  string
}

// NewLink builds the Link rule for a binary or test artifact. The
// -Xlinker "-(" / "-)" grouping resolves circular library dependencies.
func NewLink(outputRoot, name string, test bool, prereqs, objs []string, a LinkArgs) Rule {
	target := BinaryTarget(outputRoot, name)
	if test {
		target = TestTarget(outputRoot, name)
	}
	command := fmt.Sprintf(`%s -o %s -Wl,-E %s %s -Xlinker "-(" %s -Xlinker "-)"`,
		a.CXX, target, strings.Join(objs, " "), a.LDFlags, a.LDLibs)
	return baseRule{target: target, prereqs: prereqs, command: normalizeSpaces(command)}
}

// NewShared builds the Shared-library rule.
func NewShared(outputRoot, name string, prereqs, objs []string, a LinkArgs) Rule {
	target := LibraryTarget(outputRoot, name)
	command := fmt.Sprintf(`%s -o %s -shared -fPIC %s %s -Xlinker "-(" %s -Xlinker "-)"`,
		a.CXX, target, strings.Join(objs, " "), a.LDFlags, a.LDLibs)
	return baseRule{target: target, prereqs: prereqs, command: normalizeSpaces(command)}
}

// NewStatic builds the Static-library (archive) rule.
func NewStatic(outputRoot, name string, prereqs, objs []string) Rule {
	target := LibraryTarget(outputRoot, name)
	command := fmt.Sprintf("ar rcs %s %s", target, strings.Join(objs, " "))
	return baseRule{target: target, prereqs: prereqs, command: normalizeSpaces(command)}
}

// NewPhony builds a Phony rule: a Make target naming an action rather
// than a file, e.g. `all`, or a sub-module trampoline (`make -C <dir>`).
func NewPhony(name string, prereqs []string, command string) Rule {
	return baseRule{target: name, prereqs: prereqs, command: command}
}

// NewClean builds the Clean rule. Its delete-set is the union of every
// emitted non-phony target; the leading "-" makes make ignore failure
// (e.g. a target that was never built).
func NewClean(targets []string) Rule {
	sorted := append([]string(nil), targets...)
	sort.Strings(sorted)
	command := "-rm -fr " + strings.Join(sorted, " \\\n\t")
	return baseRule{target: "clean", command: command}
}

var runOfSpaces = regexp.MustCompile(` {2,}`)

// normalizeSpaces collapses runs of plain spaces produced by empty-string
// template fields (e.g. no extra cflags) into single spaces. Embedded
// "\\\n\t" line continuations are left untouched; ldlibs renders as one
// such continuation per entry for a readable multi-line linker line.
func normalizeSpaces(s string) string {
	return strings.TrimSpace(runOfSpaces.ReplaceAllString(s, " "))
}
