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

// Package procrun invokes external tools (protoc) as opaque subprocesses.
// biu never parses what these tools produce beyond tracked output file
// paths and an exit status.
package procrun

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Result is the captured outcome of one subprocess invocation.
type Result struct {
	Command string
	Output  string
	Err     error
}

// Run executes name with args, capturing combined stdout+stderr. A
// non-zero exit is returned as an error wrapping the captured output so
// callers can surface it verbatim.
func Run(ctx context.Context, name string, args ...string) Result {
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	res := Result{Command: strings.Join(append([]string{name}, args...), " "), Output: buf.String()}
	if err != nil {
		res.Err = fmt.Errorf("%s: %w: %s", res.Command, err, buf.String())
	}
	return res
}
