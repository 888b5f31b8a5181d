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

// Package makefile deterministically renders a Module's rules into a
// single Makefile, in the canonical layout: notice header, .PHONY, all,
// artifact rules, object rules, sub-module trampolines, clean.
package makefile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/biuc/biu/internal/rule"
)

// SubModule describes one declared sub-workspace, used to emit its
// trampoline phony rule (`make -C <workspace>`).
type SubModule struct {
	Name      string
	Workspace string
}

// Generator walks a resolved set of rules and writes one deterministic
// Makefile. Now is injected so output is reproducible in tests.
type Generator struct {
	Now func() string
}

// Render returns the full Makefile text for the given artifact rules,
// object rules, phony target names, and sub-module trampolines.
func (g *Generator) Render(phonies []string, artifactRules, objectRules []rule.Rule, subModules []SubModule) string {
	var buf bytes.Buffer

	buf.WriteString("# file : Makefile\n")
	buf.WriteString("# brief: this file was generated by `biu`\n")
	if g.Now != nil {
		fmt.Fprintf(&buf, "# date : %s\n", g.Now())
	}
	buf.WriteString("\n")

	buf.WriteString(renderRule(rule.NewPhony(".PHONY", phonies, "")))
	buf.WriteString("\n\n")

	allPrereqs := make([]string, len(artifactRules))
	for i, r := range artifactRules {
		allPrereqs[i] = r.Target()
	}
	buf.WriteString(renderRule(rule.NewPhony("all", allPrereqs, "")))
	buf.WriteString("\n\n\n")

	for _, r := range artifactRules {
		buf.WriteString(renderRule(r))
		buf.WriteString("\n\n")
	}

	for _, r := range objectRules {
		buf.WriteString(renderRule(r))
		buf.WriteString("\n\n")
	}

	for _, sm := range subModules {
		buf.WriteString(renderRule(rule.NewPhony(sm.Name, nil, "make -C "+sm.Workspace)))
		buf.WriteString("\n\n")
	}

	targets := unionTargets(artifactRules, objectRules)
	buf.WriteString(renderRule(rule.NewClean(targets)))
	buf.WriteString("\n")

	return buf.String()
}

// Write renders the Makefile and writes it to path, first creating every
// directory an emitted target lives under; make itself never creates
// directories for its own targets. The rendered content is returned so
// callers can compare it against a previous Makefile.
func (g *Generator) Write(path string, phonies []string, artifactRules, objectRules []rule.Rule, subModules []SubModule) (string, error) {
	if err := g.makeDirs(artifactRules, objectRules); err != nil {
		return "", err
	}
	content := g.Render(phonies, artifactRules, objectRules, subModules)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return content, nil
}

func (g *Generator) makeDirs(artifactRules, objectRules []rule.Rule) error {
	dirs := map[string]bool{}
	for _, r := range append(append([]rule.Rule{}, artifactRules...), objectRules...) {
		dirs[filepath.Dir(r.Target())] = true
	}
	sorted := make([]string, 0, len(dirs))
	for d := range dirs {
		sorted = append(sorted, d)
	}
	sort.Strings(sorted)
	for _, d := range sorted {
		if d == "" || d == "." {
			continue
		}
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func unionTargets(ruleSets ...[]rule.Rule) []string {
	seen := map[string]bool{}
	var out []string
	for _, rules := range ruleSets {
		for _, r := range rules {
			if !seen[r.Target()] {
				seen[r.Target()] = true
				out = append(out, r.Target())
			}
		}
	}
	return out
}

// renderRule serializes one rule as
//
//	target : prereq1 \<NL><TAB>prereq2 ...<NL><TAB>command
//
// with multi-space normalization already applied to command by the rule
// package.
func renderRule(r rule.Rule) string {
	var buf strings.Builder
	buf.WriteString(r.Target())
	buf.WriteString(" :")
	prereqs := r.Prereqs()
	if len(prereqs) > 0 {
		buf.WriteByte(' ')
		buf.WriteString(strings.Join(prereqs, " \\\n\t"))
	}
	if cmd := r.Command(); cmd != "" {
		buf.WriteString("\n\t")
		buf.WriteString(cmd)
	}
	return buf.String()
}
