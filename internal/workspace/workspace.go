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

// Package workspace is the workspace orchestrator: it turns one evaluated
// BUILD file into a Module (the populated configuration surface the BUILD
// API writes into), drives protoc for any declared .proto inputs, builds
// every artifact, emits the Makefile, persists the target cache, and
// recurses into declared SUBMODULE workspaces.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/biuc/biu/internal/artifact"
	"github.com/biuc/biu/internal/biulog"
	"github.com/biuc/biu/internal/cache"
	"github.com/biuc/biu/internal/config"
	"github.com/biuc/biu/internal/makefile"
	"github.com/biuc/biu/internal/pathutil"
	"github.com/biuc/biu/internal/procrun"
	"github.com/biuc/biu/internal/rule"
	"github.com/biuc/biu/internal/scope"
)

const (
	buildDirName  = ".biu"
	outputDirName = "output"
)

var protoColor = color.New(color.FgGreen)

// SubModuleRef is one declared SUBMODULE(workspace, libs): the sub's phony
// target name, its absolute workspace path, and the (parent-relative,
// symlink-addressed) library paths it contributes as link prerequisites.
type SubModuleRef struct {
	Name      string
	Workspace string
	Libs      []string
}

// Module is one workspace's build state. The BUILD evaluator (package
// config) drives a Module through the config.API methods below; Build then
// turns the populated Module into a Makefile and a refreshed target cache.
//
// Module assumes the process working directory already equals Dir when its
// methods run. The Orchestrator below owns that single, defer-guarded
// directory switch so relative source/include patterns in a sub-workspace's
// BUILD resolve correctly without Module itself ever touching the process
// CWD.
type Module struct {
	Dir        string
	Name       string
	OutputPath string

	scope  *scope.Scope
	protoc string

	protos    []string
	protoSet  map[string]bool
	protoSrcs []string

	artifacts  []*artifact.Artifact
	subModules []SubModuleRef
	phonies    []string
}

// New creates a Module rooted at dir, an absolute workspace directory.
func New(dir string) *Module {
	name := filepath.Base(dir)
	base := scope.Flags{
		CC:     "gcc",
		CXX:    "g++",
		Output: filepath.Join(outputDirName, name),
	}
	return &Module{
		Dir:        dir,
		Name:       name,
		OutputPath: outputDirName,
		scope:      scope.New(base),
		protoc:     "protoc",
		protoSet:   map[string]bool{},
		phonies:    []string{"all", "clean"},
	}
}

// The remaining methods implement config.API; BUILD statements dispatch
// here via the evaluator in package config.

func (m *Module) CC(path string)     { m.scope.CC = path }
func (m *Module) CXX(path string)    { m.scope.CXX = path }
func (m *Module) Protoc(path string) { m.protoc = path }
func (m *Module) CFlags(s string)    { m.scope.CFlags = append(m.scope.CFlags, s) }
func (m *Module) CXXFlags(s string)  { m.scope.CXXFlags = append(m.scope.CXXFlags, s) }
func (m *Module) LDFlags(s string)   { m.scope.LDFlags = append(m.scope.LDFlags, s) }
func (m *Module) LDLibs(s string)    { m.scope.LDLibs = append(m.scope.LDLibs, s) }

var _ config.API = (*Module)(nil)

// Includes expands each directory pattern (glob + tilde) and appends the
// result to the workspace's base include path.
func (m *Module) Includes(dirs []string) {
	expanded, err := pathutil.Expand(dirs)
	if err != nil {
		biulog.Warn("INCLUDES: %v", err)
		return
	}
	m.scope.Flags.Includes = append(m.scope.Flags.Includes, expanded...)
}

// Binary declares a BINARY artifact.
func (m *Module) Binary(name string, sources, protos []string, overrides config.Overrides) error {
	return m.addArtifact(artifact.Binary, name, sources, protos, overrides)
}

// Test declares a TEST artifact; it is otherwise built identically to a
// Binary but always lands under <output>/test/.
func (m *Module) Test(name string, sources, protos []string, overrides config.Overrides) error {
	return m.addArtifact(artifact.Test, name, sources, protos, overrides)
}

// Library declares a LIBRARY artifact. The evaluator has already rejected
// any name without a .a/.so suffix; the suffix alone picks static vs shared.
func (m *Module) Library(name string, sources, protos []string, overrides config.Overrides) error {
	kind := artifact.StaticLibrary
	if strings.HasSuffix(name, ".so") {
		kind = artifact.SharedLibrary
	}
	return m.addArtifact(kind, name, sources, protos, overrides)
}

func (m *Module) addArtifact(kind artifact.Kind, name string, sourcePatterns, protoPatterns []string, overrides config.Overrides) error {
	sources, err := pathutil.Expand(sourcePatterns)
	if err != nil {
		return err
	}
	protos, err := pathutil.Expand(protoPatterns)
	if err != nil {
		return err
	}
	for _, p := range protos {
		if !m.protoSet[p] {
			m.protoSet[p] = true
			m.protos = append(m.protos, p)
		}
		sources = append(sources, strings.TrimSuffix(p, ".proto")+".pb.cc")
	}

	child := m.scope.Child()
	if err := child.Extend(overridesToFlags(overrides)); err != nil {
		return err
	}

	var subLibs []string
	for _, sm := range m.subModules {
		subLibs = append(subLibs, sm.Libs...)
	}

	m.artifacts = append(m.artifacts, &artifact.Artifact{
		Name:          name,
		Kind:          kind,
		Scope:         child,
		Sources:       sources,
		SubModuleLibs: subLibs,
	})
	return nil
}

func overridesToFlags(o config.Overrides) scope.Flags {
	return scope.Flags{
		CC:       o.CC,
		CXX:      o.CXX,
		CFlags:   o.CFlags,
		CXXFlags: o.CXXFlags,
		LDFlags:  o.LDFlags,
		LDLibs:   o.LDLibs,
		Includes: o.Includes,
	}
}

// SubModule declares a SUBMODULE(workspace, libs). libs are resolved
// against this module's own output/<subname>/lib/, the path the parent's
// output symlink into the sub-workspace makes reachable, so they serve
// both as ldlibs linker arguments and as Make prerequisites that force a
// relink whenever the sub-workspace's library output changes.
func (m *Module) SubModule(workspace string, libs []string) {
	abs, err := filepath.Abs(workspace)
	if err != nil {
		biulog.Warn("SUBMODULE %s: %v", workspace, err)
		return
	}
	name := filepath.Base(strings.TrimRight(abs, string(filepath.Separator)))

	var libPaths []string
	for _, lib := range libs {
		libPaths = append(libPaths, filepath.Join(m.OutputPath, name, "lib", lib))
	}
	m.scope.LDLibs = append(m.scope.LDLibs, libPaths...)
	m.subModules = append(m.subModules, SubModuleRef{Name: name, Workspace: abs, Libs: libPaths})
	m.phonies = append(m.phonies, name)
}

// Build invokes protoc for every declared proto, builds every artifact's
// rules, emits the Makefile, symlinks sub-module outputs, and saves the
// target cache. The caller is responsible for the process CWD already
// being Dir (the Orchestrator guarantees this).
func (m *Module) Build(ctx context.Context) (cache.Diff, error) {
	if err := m.buildProtos(ctx); err != nil {
		return cache.Diff{}, err
	}

	for _, a := range m.artifacts {
		biulog.Say("[%s] artifact: %s", m.Name, a.Name)
		a.Progress = func(i, n int, source string) {
			biulog.Say("[%d/%d] analyze %s", i, n, source)
		}
		if err := a.Build(); err != nil {
			return cache.Diff{}, fmt.Errorf("artifact %s: %w", a.Name, err)
		}
	}

	if err := m.writeMakefile(); err != nil {
		return cache.Diff{}, err
	}
	if err := m.symlinkSubModuleOutputs(); err != nil {
		return cache.Diff{}, err
	}
	return m.saveCache()
}

// buildProtos invokes protoc once per declared proto, using the union of
// every declared proto's directory as the shared --proto_path set.
func (m *Module) buildProtos(ctx context.Context) error {
	for _, p := range m.protos {
		base := strings.TrimSuffix(p, ".proto")
		// Recorded absolute so `clean` can remove them from any directory.
		for _, gen := range []string{base + ".pb.h", base + ".pb.cc"} {
			if !filepath.IsAbs(gen) {
				gen = filepath.Join(m.Dir, gen)
			}
			m.protoSrcs = append(m.protoSrcs, gen)
		}
	}
	if len(m.protos) == 0 {
		return nil
	}

	var protoPathArgs []string
	dirs := lo.Uniq(lo.Map(m.protos, func(p string, _ int) string { return filepath.Dir(p) }))
	for _, d := range dirs {
		protoPathArgs = append(protoPathArgs, "--proto_path", d)
	}

	for _, p := range m.protos {
		args := append(append([]string{}, protoPathArgs...), "--cpp_out="+filepath.Dir(p), p)
		res := procrun.Run(ctx, m.protoc, args...)
		biulog.SayColor(protoColor, "%s", res.Command)
		if res.Err != nil {
			return fmt.Errorf("protoc failed on %s: %w", p, res.Err)
		}
	}
	return nil
}

func (m *Module) writeMakefile() error {
	var artifactRules, objectRules []rule.Rule
	for _, a := range m.artifacts {
		artifactRules = append(artifactRules, a.LinkRule)
		objectRules = append(objectRules, a.ObjectRules...)
	}
	var subs []makefile.SubModule
	for _, sm := range m.subModules {
		subs = append(subs, makefile.SubModule{Name: sm.Name, Workspace: sm.Workspace})
	}

	previous, _ := os.ReadFile("Makefile")

	gen := &makefile.Generator{Now: func() string { return time.Now().Format("2006-01-02 15:04:05") }}
	content, err := gen.Write("Makefile", m.phonies, artifactRules, objectRules, subs)
	if err != nil {
		return err
	}
	if len(previous) > 0 {
		reportMakefileChange(string(previous), content)
	}
	return nil
}

// reportMakefileChange diffs the previous and the freshly generated
// Makefile, ignoring the timestamp comment, and prints one line with the
// number of bytes that differ. Silent when
// nothing but the timestamp changed.
func reportMakefileChange(previous, current string) {
	prev := stripDateComment(previous)
	cur := stripDateComment(current)
	if prev == cur {
		return
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(prev, cur, true)
	changed := 0
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffEqual {
			changed += len(d.Text)
		}
	}
	biulog.Say("Makefile changed (%d bytes differ)", changed)
}

func stripDateComment(s string) string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if strings.HasPrefix(l, "# date :") {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}

func (m *Module) symlinkSubModuleOutputs() error {
	if len(m.subModules) == 0 {
		return nil
	}
	if err := os.MkdirAll(m.OutputPath, 0o755); err != nil {
		return err
	}
	for _, sm := range m.subModules {
		target := filepath.Join(sm.Workspace, m.OutputPath, sm.Name)
		link := filepath.Join(m.OutputPath, sm.Name)
		if fi, err := os.Lstat(link); err == nil && fi.Mode()&os.ModeSymlink != 0 {
			os.Remove(link)
		}
		if err := os.Symlink(target, link); err != nil && !os.IsExist(err) {
			return err
		}
	}
	return nil
}

func (m *Module) saveCache() (cache.Diff, error) {
	if err := os.MkdirAll(buildDirName, 0o755); err != nil {
		return cache.Diff{}, err
	}
	c := cache.Open(filepath.Join(buildDirName, "targets"))
	for _, a := range m.artifacts {
		for _, r := range a.ObjectRules {
			c.Set(r.Target(), r.Prereqs(), r.Command(), true)
		}
		c.Set(a.LinkRule.Target(), a.LinkRule.Prereqs(), a.LinkRule.Command(), false)
	}
	return c.Save()
}

// Orchestrator drives one top-level `biu build`/`biu clean` invocation: it
// evaluates the root workspace's BUILD, builds it, then recurses into every
// declared sub-workspace by constructing a fresh Module addressed by its
// own absolute directory (never by chdir'ing the whole run into it), and
// finally records every visited workspace and generated proto source under
// the root's control files so clean can find them later.
type Orchestrator struct{}

// NewOrchestrator returns a ready-to-use Orchestrator.
func NewOrchestrator() *Orchestrator { return &Orchestrator{} }

// Build runs a full build pass rooted at dir: the root workspace first,
// then every declared sub-workspace depth-first. A workspace declared by
// two parents is built once.
func (o *Orchestrator) Build(ctx context.Context, dir string) error {
	root, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	visited := map[string]bool{}
	var workspaces, protoSrcs []string

	var walk func(dir string) (*Module, error)
	walk = func(dir string) (*Module, error) {
		if visited[dir] {
			return nil, nil
		}
		visited[dir] = true
		m, err := o.buildOne(ctx, dir)
		if err != nil {
			return nil, err
		}
		workspaces = append(workspaces, dir)
		protoSrcs = append(protoSrcs, m.protoSrcs...)
		for _, sm := range m.subModules {
			if _, err := walk(sm.Workspace); err != nil {
				return nil, err
			}
		}
		return m, nil
	}

	top, err := walk(root)
	if err != nil {
		return err
	}

	if err := o.writeControlFiles(root, workspaces, protoSrcs); err != nil {
		return err
	}

	biulog.Say("build makefile : Makefile")
	biulog.Say("build output   : %s", filepath.Join(top.OutputPath, ""))
	return nil
}

// buildOne evaluates and builds the single workspace at dir. The process
// CWD is switched to dir for the span of evaluation+build (so relative
// glob patterns and #include resolution in that workspace's BUILD behave
// exactly as if `biu` had been invoked from inside it) and is always
// restored via defer, eliminating the restore-on-error hazard a bare
// os.Chdir/os.Chdir pair would have.
func (o *Orchestrator) buildOne(ctx context.Context, dir string) (*Module, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if err := os.Chdir(dir); err != nil {
		return nil, err
	}
	defer os.Chdir(wd)

	biulog.V(1).Infof("workspace %s: evaluating BUILD", dir)
	m := New(dir)
	if err := config.EvalFile(filepath.Join(dir, "BUILD"), m); err != nil {
		return nil, err
	}
	if _, err := m.Build(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (o *Orchestrator) writeControlFiles(root string, workspaces, protoSrcs []string) error {
	dir := filepath.Join(root, buildDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeLines(filepath.Join(dir, "modules"), workspaces); err != nil {
		return err
	}
	return writeLines(filepath.Join(dir, "protos"), protoSrcs)
}

// Clean removes every recorded workspace's Makefile, build-state
// directory, and output directory, plus every recorded generated proto
// source. Falls back to just dir if no control files were ever written.
func (o *Orchestrator) Clean(dir string) error {
	root, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	workspaces := []string{root}
	if lines, err := readLines(filepath.Join(root, buildDirName, "modules")); err == nil {
		workspaces = lines
	}
	if lines, err := readLines(filepath.Join(root, buildDirName, "protos")); err == nil {
		for _, p := range lines {
			os.Remove(p)
		}
	}
	for _, ws := range workspaces {
		os.Remove(filepath.Join(ws, "Makefile"))
		os.RemoveAll(filepath.Join(ws, buildDirName))
		os.RemoveAll(filepath.Join(ws, outputDirName))
	}
	return nil
}

func writeLines(path string, lines []string) error {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, l := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if l != "" {
			out = append(out, l)
		}
	}
	return out, nil
}
