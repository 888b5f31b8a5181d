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

// Package config is the minimal, restricted evaluator for the BUILD API
// surface: CC, CXX, PROTOC, CFLAGS, CXXFLAGS, LDFLAGS, LDLIBS, INCLUDES,
// BINARY, TEST, LIBRARY, SUBMODULE. A fixed, hand-rolled grammar over
// literal function calls, not an embedded general-purpose language.
package config

import (
	"fmt"
	"os"
	"strings"
)

// ConfigError reports a BUILD file that evaluated incorrectly: a syntax
// error, an unknown override key, or a LIBRARY name without a .a/.so
// suffix.
type ConfigError struct {
	Path string
	Line int
	Msg  string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// Overrides is the enumerated, optional per-artifact override set the
// BUILD API's **kwargs accepts. An unknown key is a ConfigError at
// evaluation time.
type Overrides struct {
	CC       string
	CXX      string
	CFlags   []string
	CXXFlags []string
	LDFlags  []string
	LDLibs   []string
	Includes []string
}

// API is the set of callbacks a BUILD file's statements are dispatched
// to, normally the Module being populated.
type API interface {
	CC(path string)
	CXX(path string)
	Protoc(path string)
	CFlags(s string)
	CXXFlags(s string)
	LDFlags(s string)
	LDLibs(s string)
	Includes(dirs []string)
	Binary(name string, sources, protos []string, overrides Overrides) error
	Test(name string, sources, protos []string, overrides Overrides) error
	Library(name string, sources, protos []string, overrides Overrides) error
	SubModule(workspace string, libs []string)
}

// EvalFile reads and evaluates the BUILD file at path against api.
func EvalFile(path string, api API) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return Eval(path, string(data), api)
}

// Eval parses and evaluates BUILD source text against api.
func Eval(path, src string, api API) error {
	calls, err := parseProgram(src)
	if err != nil {
		return &ConfigError{Path: path, Msg: err.Error()}
	}
	for _, c := range calls {
		if err := dispatch(path, c, api); err != nil {
			return err
		}
	}
	return nil
}

func dispatch(path string, c call, api API) error {
	switch c.name {
	case "CC":
		s, err := singleString(path, c)
		if err != nil {
			return err
		}
		api.CC(s)
	case "CXX":
		s, err := singleString(path, c)
		if err != nil {
			return err
		}
		api.CXX(s)
	case "PROTOC":
		s, err := singleString(path, c)
		if err != nil {
			return err
		}
		api.Protoc(s)
	case "CFLAGS":
		s, err := singleString(path, c)
		if err != nil {
			return err
		}
		api.CFlags(s)
	case "CXXFLAGS":
		s, err := singleString(path, c)
		if err != nil {
			return err
		}
		api.CXXFlags(s)
	case "LDFLAGS":
		s, err := singleString(path, c)
		if err != nil {
			return err
		}
		api.LDFlags(s)
	case "LDLIBS":
		s, err := singleString(path, c)
		if err != nil {
			return err
		}
		api.LDLibs(s)
	case "INCLUDES":
		var dirs []string
		for _, a := range c.args {
			dirs = append(dirs, toList(a.value)...)
		}
		api.Includes(dirs)
	case "BINARY":
		return dispatchArtifact(path, c, api.Binary)
	case "TEST":
		return dispatchArtifact(path, c, api.Test)
	case "LIBRARY":
		return dispatchArtifact(path, c, func(name string, sources, protos []string, o Overrides) error {
			if !strings.HasSuffix(name, ".a") && !strings.HasSuffix(name, ".so") {
				return &ConfigError{Path: path, Line: c.line, Msg: fmt.Sprintf("LIBRARY name %q must end in .a or .so", name)}
			}
			return api.Library(name, sources, protos, o)
		})
	case "SUBMODULE":
		return dispatchSubModule(path, c, api)
	default:
		return &ConfigError{Path: path, Line: c.line, Msg: fmt.Sprintf("unknown BUILD function %q", c.name)}
	}
	return nil
}

type artifactFn func(name string, sources, protos []string, overrides Overrides) error

func dispatchArtifact(path string, c call, fn artifactFn) error {
	var name string
	var sources, protos []string
	overrides := Overrides{}

	positional := 0
	for _, a := range c.args {
		if a.name == "" {
			switch positional {
			case 0:
				name = a.value.str
			case 1:
				sources = toList(a.value)
			case 2:
				protos = toList(a.value)
			default:
				return &ConfigError{Path: path, Line: c.line, Msg: fmt.Sprintf("%s: too many positional arguments", c.name)}
			}
			positional++
			continue
		}
		switch strings.ToLower(a.name) {
		case "name":
			name = a.value.str
		case "sources":
			sources = toList(a.value)
		case "protos":
			protos = toList(a.value)
		case "cc":
			overrides.CC = a.value.str
		case "cxx":
			overrides.CXX = a.value.str
		case "cflags":
			overrides.CFlags = toList(a.value)
		case "cxxflags":
			overrides.CXXFlags = toList(a.value)
		case "ldflags":
			overrides.LDFlags = toList(a.value)
		case "ldlibs":
			overrides.LDLibs = toList(a.value)
		case "includes":
			overrides.Includes = toList(a.value)
		default:
			return &ConfigError{Path: path, Line: c.line, Msg: fmt.Sprintf("%s: unknown keyword argument %q", c.name, a.name)}
		}
	}
	if name == "" {
		return &ConfigError{Path: path, Line: c.line, Msg: fmt.Sprintf("%s: name is required", c.name)}
	}
	return fn(name, sources, protos, overrides)
}

func dispatchSubModule(path string, c call, api API) error {
	if len(c.args) < 1 {
		return &ConfigError{Path: path, Line: c.line, Msg: "SUBMODULE requires a workspace argument"}
	}
	workspace := c.args[0].value.str
	var libs []string
	if len(c.args) > 1 {
		libs = toList(c.args[1].value)
	}
	api.SubModule(workspace, libs)
	return nil
}

func singleString(path string, c call) (string, error) {
	if len(c.args) != 1 || c.args[0].value.isList {
		return "", &ConfigError{Path: path, Line: c.line, Msg: fmt.Sprintf("%s expects a single string argument", c.name)}
	}
	return c.args[0].value.str, nil
}

// toList accepts both value shapes: a list literal is used as-is; a bare
// string is split on spaces, so BUILD files may write
// `cflags='-DFOO -DBAR'` instead of a list.
func toList(v value) []string {
	if v.isList {
		return v.list
	}
	if v.str == "" {
		return nil
	}
	return strings.Fields(v.str)
}
