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

package config

import "fmt"

// value is either a string literal or a list of string literals, the
// only two shapes the BUILD API surface ever needs.
type value struct {
	str    string
	list   []string
	isList bool
}

// arg is one call argument: positional if name == "".
type arg struct {
	name  string
	value value
}

// call is one top-level BUILD statement, e.g. BINARY(name='app', ...).
type call struct {
	name string
	line int
	args []arg
}

type parser struct {
	lex *lexer
	tok token
}

func newParser(src string) (*parser, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

// parseProgram parses the whole BUILD file into a sequence of calls.
func parseProgram(src string) ([]call, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	var calls []call
	for p.tok.kind != tokEOF {
		c, err := p.parseCall()
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, nil
}

func (p *parser) parseCall() (call, error) {
	if p.tok.kind != tokIdent {
		return call{}, fmt.Errorf("line %d: expected a function name", p.tok.line)
	}
	c := call{name: p.tok.text, line: p.tok.line}
	if err := p.advance(); err != nil {
		return call{}, err
	}
	if p.tok.kind != tokLParen {
		return call{}, fmt.Errorf("line %d: expected '(' after %s", p.tok.line, c.name)
	}
	if err := p.advance(); err != nil {
		return call{}, err
	}
	for p.tok.kind != tokRParen {
		a, err := p.parseArg()
		if err != nil {
			return call{}, err
		}
		c.args = append(c.args, a)
		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return call{}, err
			}
			continue
		}
		break
	}
	if p.tok.kind != tokRParen {
		return call{}, fmt.Errorf("line %d: expected ')' to close %s(...)", p.tok.line, c.name)
	}
	return c, p.advance()
}

func (p *parser) parseArg() (arg, error) {
	var name string
	if p.tok.kind == tokIdent {
		// Could be `name=value` or a bareword we don't support otherwise.
		saved := p.tok
		if err := p.advance(); err != nil {
			return arg{}, err
		}
		if p.tok.kind == tokEquals {
			name = saved.text
			if err := p.advance(); err != nil {
				return arg{}, err
			}
		} else {
			return arg{}, fmt.Errorf("line %d: unexpected bare identifier %q", saved.line, saved.text)
		}
	}
	v, err := p.parseValue()
	if err != nil {
		return arg{}, err
	}
	return arg{name: name, value: v}, nil
}

func (p *parser) parseValue() (value, error) {
	switch p.tok.kind {
	case tokString:
		v := value{str: p.tok.text}
		return v, p.advance()
	case tokLBracket, tokLParen:
		return p.parseList(p.tok.kind)
	default:
		return value{}, fmt.Errorf("line %d: expected a string or list literal", p.tok.line)
	}
}

// parseList parses both `[...]` (a list) and `(...)` (a tuple, used for
// e.g. `protos=()` empty-tuple defaults) identically: a comma-separated
// sequence of string literals.
func (p *parser) parseList(open tokenKind) (value, error) {
	closeKind := tokRBracket
	if open == tokLParen {
		closeKind = tokRParen
	}
	if err := p.advance(); err != nil {
		return value{}, err
	}
	v := value{isList: true, list: []string{}}
	for p.tok.kind != closeKind {
		if p.tok.kind != tokString {
			return value{}, fmt.Errorf("line %d: list/tuple entries must be strings", p.tok.line)
		}
		v.list = append(v.list, p.tok.text)
		if err := p.advance(); err != nil {
			return value{}, err
		}
		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return value{}, err
			}
			continue
		}
		break
	}
	if p.tok.kind != closeKind {
		return value{}, fmt.Errorf("line %d: unterminated list/tuple", p.tok.line)
	}
	return v, p.advance()
}
