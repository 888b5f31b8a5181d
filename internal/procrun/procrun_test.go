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

package procrun

import (
	"context"
	"strings"
	"testing"
)

func TestRunCapturesCombinedOutput(t *testing.T) {
	res := Run(context.Background(), "sh", "-c", "echo out; echo err 1>&2")
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if !strings.Contains(res.Output, "out") || !strings.Contains(res.Output, "err") {
		t.Fatalf("Output = %q, want both streams captured", res.Output)
	}
}

func TestRunNonZeroExitSurfacesOutput(t *testing.T) {
	res := Run(context.Background(), "sh", "-c", "echo boom 1>&2; exit 3")
	if res.Err == nil {
		t.Fatal("expected an error for a non-zero exit")
	}
	if !strings.Contains(res.Err.Error(), "boom") {
		t.Fatalf("error should carry captured output: %v", res.Err)
	}
}

func TestRunCommandString(t *testing.T) {
	res := Run(context.Background(), "sh", "-c", "true")
	if res.Command != "sh -c true" {
		t.Fatalf("Command = %q", res.Command)
	}
}
