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

// Package scaffold renders the starter BUILD file the `create` subcommand
// writes into a fresh workspace.
package scaffold

import (
	"bytes"
	"text/template"
)

// Options are the create subcommand's user-supplied overrides for the
// scaffolded BUILD file.
type Options struct {
	Name     string
	Sources  []string
	CFlags   string
	CXXFlags string
}

const tpl = `CC('gcc')

CXX('g++')

# PROTOC('protoc')

CFLAGS('{{.CFlags}}')

CXXFLAGS('{{.CXXFlags}}')

LDFLAGS('-L.')

LDLIBS('-lpthread')

BINARY(name='{{.Name}}', sources=[{{range $i, $s := .Sources}}{{if $i}}, {{end}}'{{$s}}'{{end}}])
`

var starter = template.Must(template.New("BUILD").Parse(tpl))

// Render renders the starter BUILD file text for the given options,
// filling in sane defaults for any field left unset.
func Render(o Options) (string, error) {
	if o.Name == "" {
		o.Name = "app"
	}
	if len(o.Sources) == 0 {
		o.Sources = []string{"src/*.cc", "src/*.cpp"}
	}
	if o.CFlags == "" {
		o.CFlags = "-g -pipe -Wall -std=c99"
	}
	if o.CXXFlags == "" {
		o.CXXFlags = "-g -pipe -Wall -std=c++11"
	}

	var buf bytes.Buffer
	if err := starter.Execute(&buf, o); err != nil {
		return "", err
	}
	return buf.String(), nil
}
