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

// Package artifact binds a named build output (binary, test, static or
// shared library) to its Compile rules and its Link/Static/Shared rule.
package artifact

import (
	"github.com/biuc/biu/internal/rule"
	"github.com/biuc/biu/internal/scan"
	"github.com/biuc/biu/internal/scope"
)

// Kind enumerates the four artifact variants the BUILD API can produce.
type Kind int

const (
	Binary Kind = iota
	Test
	StaticLibrary
	SharedLibrary
)

// Artifact is a named build output together with the scope it was
// declared under and its source list. ObjectRules and LinkRule are filled
// in by Build.
type Artifact struct {
	Name          string
	Kind          Kind
	Scope         *scope.Scope
	Sources       []string
	SubModuleLibs []string

	// Progress, when set, is called once per source before its header
	// closure is scanned (for the per-source analyze banner).
	Progress func(i, n int, source string)

	ObjectRules []rule.Rule
	LinkRule    rule.Rule
}

// Build scans every source's header closure, emits one Compile rule per
// source, and then the single Link/Static/Shared rule for the artifact,
// whose prereqs are every object target plus the artifact's imported
// sub-module library paths.
func (a *Artifact) Build() error {
	includeDirs := a.Scope.Includes()
	compileArgs := rule.CompileArgs{
		CC:       a.Scope.CCPath(),
		CXX:      a.Scope.CXXPath(),
		CFlags:   a.Scope.CFlagsString(),
		CXXFlags: a.Scope.CXXFlagsString(),
		Includes: a.Scope.IncludesString(),
	}

	var objs []string
	for i, source := range a.Sources {
		if a.Progress != nil {
			a.Progress(i+1, len(a.Sources), source)
		}
		prereqs, err := scan.Closure(source, includeDirs)
		if err != nil {
			return err
		}
		r := rule.NewCompile(a.Scope.OutputRoot(), a.Name, source, prereqs, compileArgs)
		a.ObjectRules = append(a.ObjectRules, r)
		objs = append(objs, r.Target())
	}

	linkPrereqs := append(append([]string(nil), objs...), a.SubModuleLibs...)
	linkArgs := rule.LinkArgs{
		CXX:     a.Scope.CXXPath(),
		LDFlags: a.Scope.LDFlagsString(),
		LDLibs:  a.Scope.LDLibsString(),
	}

	switch a.Kind {
	case Binary:
		a.LinkRule = rule.NewLink(a.Scope.OutputRoot(), a.Name, false, linkPrereqs, objs, linkArgs)
	case Test:
		a.LinkRule = rule.NewLink(a.Scope.OutputRoot(), a.Name, true, linkPrereqs, objs, linkArgs)
	case SharedLibrary:
		a.LinkRule = rule.NewShared(a.Scope.OutputRoot(), a.Name, linkPrereqs, objs, linkArgs)
	case StaticLibrary:
		a.LinkRule = rule.NewStatic(a.Scope.OutputRoot(), a.Name, linkPrereqs, objs)
	}
	return nil
}
