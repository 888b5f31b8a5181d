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

// Package scope implements the layered per-artifact configuration view: a
// child scope overrides or extends a parent scope, with reads falling
// through to the parent on miss.
package scope

import (
	"strings"

	"github.com/imdario/mergo"
)

// Flags holds the five list-valued flag families plus the toolchain and
// output root for one layer of a Scope.
type Flags struct {
	CC       string
	CXX      string
	Protoc   string
	Output   string
	CFlags   []string
	CXXFlags []string
	LDFlags  []string
	LDLibs   []string
	Includes []string
}

// Scope is a two-level configuration view. Its read accessors (CCPath,
// CFlagsString, Includes, ...) fall through to the parent on a zero value; Extend merges a child layer onto this one, appending
// list-valued fields instead of overwriting them.
type Scope struct {
	parent *Scope
	Flags
}

// New returns a root scope (no parent) seeded with the given base flags.
func New(base Flags) *Scope {
	return &Scope{Flags: base}
}

// Child returns a new scope materialized from s's currently-effective
// values (resolved through s's own parent chain), with s kept as a
// fallback for any field Child itself never receives via Extend. Callers
// build one child per artifact, then call Extend with that artifact's
// keyword overrides.
func (s *Scope) Child() *Scope {
	c := &Scope{parent: s}
	c.Flags = Flags{
		CC:       s.CCPath(),
		CXX:      s.CXXPath(),
		Protoc:   s.ProtocPath(),
		Output:   s.OutputRoot(),
		CFlags:   append([]string(nil), s.resolve(func(f Flags) []string { return f.CFlags })...),
		CXXFlags: append([]string(nil), s.resolve(func(f Flags) []string { return f.CXXFlags })...),
		LDFlags:  append([]string(nil), s.resolve(func(f Flags) []string { return f.LDFlags })...),
		LDLibs:   append([]string(nil), s.resolve(func(f Flags) []string { return f.LDLibs })...),
		Includes: append([]string(nil), s.resolve(func(f Flags) []string { return f.Includes })...),
	}
	return c
}

// Extend merges overrides onto s in place: scalar fields (CC, CXX, Protoc,
// Output) are replaced when non-empty, list-valued fields are appended to
// whatever s already carries (typically the materialized parent values
// from Child). The workspace provides base flags; artifact-level
// overrides append.
func (s *Scope) Extend(overrides Flags) error {
	return mergo.Merge(&s.Flags, overrides, mergo.WithOverride, mergo.WithAppendSlice)
}

// CFlagsString renders cflags/cxxflags/ldflags as a space-joined string,
// resolving through the parent chain for any empty local value.
func (s *Scope) CFlagsString() string {
	return strings.Join(s.resolve(func(f Flags) []string { return f.CFlags }), " ")
}

func (s *Scope) CXXFlagsString() string {
	return strings.Join(s.resolve(func(f Flags) []string { return f.CXXFlags }), " ")
}

func (s *Scope) LDFlagsString() string {
	return strings.Join(s.resolve(func(f Flags) []string { return f.LDFlags }), " ")
}

// LDLibsString renders ldlibs joined with an escaped line continuation,
// producing a readable multi-line linker command.
func (s *Scope) LDLibsString() string {
	return strings.Join(s.resolve(func(f Flags) []string { return f.LDLibs }), " \\\n\t")
}

// IncludesString renders each include directory prefixed with "-I ".
func (s *Scope) IncludesString() string {
	dirs := s.resolve(func(f Flags) []string { return f.Includes })
	parts := make([]string, len(dirs))
	for i, d := range dirs {
		parts[i] = "-I " + d
	}
	return strings.Join(parts, " ")
}

// Includes returns the resolved include directory list (used by the
// include scanner, which needs the list, not the rendered string).
func (s *Scope) Includes() []string {
	return s.resolve(func(f Flags) []string { return f.Includes })
}

func (s *Scope) resolve(pick func(Flags) []string) []string {
	if v := pick(s.Flags); len(v) > 0 {
		return v
	}
	if s.parent != nil {
		return s.parent.resolve(pick)
	}
	return nil
}

// CCPath returns the effective C compiler, falling through to the parent.
func (s *Scope) CCPath() string { return s.resolveString(func(f Flags) string { return f.CC }) }

// CXXPath returns the effective C++ compiler, falling through to the parent.
func (s *Scope) CXXPath() string { return s.resolveString(func(f Flags) string { return f.CXX }) }

// ProtocPath returns the effective protoc binary, falling through to the parent.
func (s *Scope) ProtocPath() string { return s.resolveString(func(f Flags) string { return f.Protoc }) }

// OutputRoot returns the effective output root directory.
func (s *Scope) OutputRoot() string { return s.resolveString(func(f Flags) string { return f.Output }) }

func (s *Scope) resolveString(pick func(Flags) string) string {
	if v := pick(s.Flags); v != "" {
		return v
	}
	if s.parent != nil {
		return s.parent.resolveString(pick)
	}
	return ""
}
