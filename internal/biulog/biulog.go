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

// Package biulog splits biu's logging into two tiers: Say/Warn/Error are
// always-on colored stdout lines for the person running `biu`; V(n)
// gates verbose internal tracing behind glog's -v flag. Every Error is
// additionally mirrored to a rotated log file so a failure survives
// after the terminal scrolls away.
package biulog

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/golang/glog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	sayColor   = color.New(color.FgWhite)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed)

	fileMirror io.Writer
)

// SetColor applies the --color mode: "always" forces ANSI colors even
// when stdout is not a terminal, "never" strips them, and "auto" leaves
// fatih/color's own tty detection in charge.
func SetColor(mode string) {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	}
}

// OpenLogFile points Error's file mirror at a rotated log under the
// workspace's build root (".biu/build.log" by default). Safe to call
// multiple times; the latest call wins.
func OpenLogFile(path string) {
	fileMirror = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
	}
}

// Say prints a plain informational line.
func Say(format string, a ...interface{}) {
	sayColor.Println(fmt.Sprintf(format, a...))
}

// SayColor prints a line in an explicit color, e.g. the echoed protoc
// command line during a build.
func SayColor(c *color.Color, format string, a ...interface{}) {
	c.Println(fmt.Sprintf(format, a...))
}

// Warn prints a one-line yellow warning.
func Warn(format string, a ...interface{}) {
	warnColor.Println(fmt.Sprintf(format, a...))
}

// Error prints a one-line red diagnostic and mirrors it to the rotated
// log file.
func Error(format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	errorColor.Fprintln(os.Stdout, msg)
	if fileMirror != nil {
		fmt.Fprintln(fileMirror, msg)
	}
}

// V gates verbose internal tracing behind glog's -v flag.
func V(level glog.Level) glog.Verbose { return glog.V(level) }
