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

// Command biu is a meta-build tool for C/C++/Protocol-Buffers projects: it
// evaluates a workspace's BUILD file and emits a deterministic Makefile.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"
	kongcompletion "github.com/jotaen/kong-completion"

	"github.com/biuc/biu/internal/biulog"
	"github.com/biuc/biu/internal/scaffold"
	"github.com/biuc/biu/internal/workspace"
)

var version = "1.0.0"

// Globals are the flags every subcommand shares.
type Globals struct {
	Verbose bool   `help:"Enable verbose internal diagnostics." short:"v"`
	Color   string `help:"Colorize output." enum:"auto,always,never" default:"auto"`
	LogFile string `help:"Mirror error diagnostics to this file." default:".biu/build.log"`
}

// CLI is the full biu command surface.
type CLI struct {
	Globals

	Create     CreateCmd                 `cmd:"" help:"Write a fresh BUILD scaffold in the current directory."`
	Build      BuildCmd                  `cmd:"" help:"Evaluate ./BUILD and emit ./Makefile."`
	Clean      CleanCmd                  `cmd:"" help:"Remove every generated artifact and build-state file."`
	Help       HelpCmd                   `cmd:"" help:"Show usage."`
	Version    VersionCmd                `cmd:"" help:"Print the biu version."`
	Completion kongcompletion.Completion `cmd:"" help:"Output shell completion code."`
}

// CreateCmd implements the `create` subcommand.
type CreateCmd struct {
	Name     string   `help:"Artifact name." default:"app"`
	Sources  []string `help:"Source glob patterns." default:"src/*.cc,src/*.cpp"`
	CFlags   string   `help:"CFLAGS to scaffold."`
	CXXFlags string   `help:"CXXFLAGS to scaffold."`
}

func (c *CreateCmd) Run(g *Globals) error {
	content, err := scaffold.Render(scaffold.Options{
		Name:     c.Name,
		Sources:  c.Sources,
		CFlags:   c.CFlags,
		CXXFlags: c.CXXFlags,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile("BUILD", []byte(content), 0o644); err != nil {
		return err
	}
	biulog.Warn("the `BUILD` has been generated in the current directory")
	return nil
}

// BuildCmd implements the `build` subcommand.
type BuildCmd struct{}

func (c *BuildCmd) Run(g *Globals) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	return workspace.NewOrchestrator().Build(context.Background(), dir)
}

// CleanCmd implements the `clean` subcommand.
type CleanCmd struct{}

func (c *CleanCmd) Run(g *Globals) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	return workspace.NewOrchestrator().Clean(dir)
}

// HelpCmd prints the same usage text as --help.
type HelpCmd struct{}

func (c *HelpCmd) Run(ctx *kong.Context) error {
	return ctx.PrintUsage(false)
}

// VersionCmd prints the tool version.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	fmt.Println(version)
	return nil
}

func main() {
	var cli CLI

	parser := kong.Must(&cli,
		kong.Name("biu"),
		kong.Description("A meta-build tool for C/C++/Protocol-Buffers projects."),
		kong.Configuration(kongyaml.Loader, ".biurc.yaml", "~/.biurc.yaml"),
		kong.UsageOnError(),
	)
	kongcompletion.Register(parser)

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	// glog registers its flags on the default flag set; mark it parsed so
	// the verbosity flags can be driven programmatically.
	flag.CommandLine.Parse(nil)
	if cli.Verbose {
		flag.Set("logtostderr", "true")
		flag.Set("v", "2")
	}
	biulog.SetColor(cli.Color)
	if cli.LogFile != "" && !strings.HasPrefix(ctx.Command(), "completion") {
		biulog.OpenLogFile(cli.LogFile)
	}

	if err := ctx.Run(&cli.Globals); err != nil {
		biulog.Error("%v", err)
		os.Exit(1)
	}
}
