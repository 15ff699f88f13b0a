// Package literal parses tool invocations written as
//
//	name(arg, key=value, ...)
//
// where every argument is a literal: a string, a number, a boolean, None, or
// a list/tuple/dict of literals. Nothing is ever evaluated. Identifiers in
// value position, attribute access, calls, operators and subscripts are
// rejected with a NonLiteral error.
package literal

import (
	"fmt"
	"strconv"
)

// ErrorKind classifies parse failures.
type ErrorKind int

const (
	// Syntax marks text that does not follow the call grammar at all.
	Syntax ErrorKind = iota
	// NonLiteral marks a well-formed expression that is not a plain literal.
	NonLiteral
)

func (k ErrorKind) String() string {
	if k == NonLiteral {
		return "non-literal expression"
	}
	return "syntax error"
}

// Error reports a parse failure at a byte offset of the input.
type Error struct {
	Kind ErrorKind
	Pos  int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", e.Kind, e.Pos, e.Msg)
}

const maxDepth = 64

// Keyword is a name=value argument.
type Keyword struct {
	Name  string
	Value any
}

// Call is a parsed invocation. Values are string, int64, float64, bool, nil,
// []any or map[string]any.
type Call struct {
	Name     string
	Args     []any
	Keywords []Keyword
}

// ParseCall parses src as a single invocation.
func ParseCall(src string) (*Call, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.call()
}

// ParseValue parses src as a single literal value.
func ParseValue(src string) (any, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	v, err := p.value(0)
	if err != nil {
		return nil, err
	}
	if err := p.afterValue(); err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tEOF {
		return nil, &Error{Kind: Syntax, Pos: t.pos, Msg: "unexpected trailing input"}
	}
	return v, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.kind != tEOF {
		p.pos++
	}
	return t
}

func (p *parser) call() (*Call, error) {
	name := p.advance()
	if name.kind != tIdent {
		return nil, &Error{Kind: Syntax, Pos: name.pos, Msg: "expected tool name"}
	}
	if t := p.advance(); !t.is(tPunct, "(") {
		if t.kind == tOther && t.text == "." {
			return nil, &Error{Kind: NonLiteral, Pos: t.pos, Msg: "attribute access is not allowed"}
		}
		return nil, &Error{Kind: Syntax, Pos: t.pos, Msg: "expected '(' after tool name"}
	}

	c := &Call{Name: name.text}
	seen := map[string]bool{}
	for {
		if p.peek().is(tPunct, ")") {
			p.advance()
			break
		}

		if p.peek().kind == tIdent && p.peekAt(1).is(tPunct, "=") {
			key := p.advance()
			p.advance() // '='
			if seen[key.text] {
				return nil, &Error{Kind: Syntax, Pos: key.pos, Msg: fmt.Sprintf("keyword argument %q repeated", key.text)}
			}
			seen[key.text] = true
			v, err := p.value(0)
			if err != nil {
				return nil, err
			}
			c.Keywords = append(c.Keywords, Keyword{Name: key.text, Value: v})
		} else {
			at := p.peek().pos
			v, err := p.value(0)
			if err != nil {
				return nil, err
			}
			if len(c.Keywords) > 0 {
				return nil, &Error{Kind: Syntax, Pos: at, Msg: "positional argument follows keyword argument"}
			}
			c.Args = append(c.Args, v)
		}

		if err := p.afterValue(); err != nil {
			return nil, err
		}
		t := p.advance()
		if t.is(tPunct, ")") {
			break
		}
		if !t.is(tPunct, ",") {
			return nil, unexpected(t, "',' or ')'")
		}
	}

	if t := p.peek(); t.kind != tEOF {
		return nil, &Error{Kind: Syntax, Pos: t.pos, Msg: "unexpected trailing input"}
	}
	return c, nil
}

// afterValue rejects operators, calls, subscripts and attribute access that
// would turn the literal just parsed into an expression.
func (p *parser) afterValue() error {
	t := p.peek()
	switch {
	case t.kind == tOther:
		return &Error{Kind: NonLiteral, Pos: t.pos, Msg: fmt.Sprintf("operator %q is not allowed", t.text)}
	case t.is(tPunct, "("):
		return &Error{Kind: NonLiteral, Pos: t.pos, Msg: "calls are not allowed"}
	case t.is(tPunct, "["):
		return &Error{Kind: NonLiteral, Pos: t.pos, Msg: "subscripts are not allowed"}
	case t.is(tPunct, "+"), t.is(tPunct, "-"):
		return &Error{Kind: NonLiteral, Pos: t.pos, Msg: "arithmetic is not allowed"}
	}
	return nil
}

func (p *parser) value(depth int) (any, error) {
	if depth > maxDepth {
		return nil, &Error{Kind: Syntax, Pos: p.peek().pos, Msg: "nesting too deep"}
	}

	t := p.advance()
	switch t.kind {
	case tString:
		s := t.str
		for p.peek().kind == tString { // implicit concatenation
			s += p.advance().str
		}
		return s, nil
	case tInt:
		return t.i, nil
	case tFloat:
		return t.f, nil
	case tIdent:
		switch t.text {
		case "True", "true":
			return true, nil
		case "False", "false":
			return false, nil
		case "None", "null":
			return nil, nil
		}
		return nil, &Error{Kind: NonLiteral, Pos: t.pos, Msg: fmt.Sprintf("name %q is not a literal", t.text)}
	case tPunct:
		switch t.text {
		case "-", "+":
			n := p.advance()
			switch n.kind {
			case tInt:
				if t.text == "-" {
					return -n.i, nil
				}
				return n.i, nil
			case tFloat:
				if t.text == "-" {
					return -n.f, nil
				}
				return n.f, nil
			}
			return nil, &Error{Kind: NonLiteral, Pos: t.pos, Msg: "unary operator applied to a non-number"}
		case "[":
			items, _, err := p.sequence("]", depth)
			return items, err
		case "(":
			items, trailingComma, err := p.sequence(")", depth)
			if err != nil {
				return nil, err
			}
			if len(items) == 1 && !trailingComma {
				return items[0], nil
			}
			return items, nil
		case "{":
			return p.dict(depth)
		}
	case tOther:
		return nil, &Error{Kind: NonLiteral, Pos: t.pos, Msg: fmt.Sprintf("operator %q is not allowed", t.text)}
	case tEOF:
		return nil, &Error{Kind: Syntax, Pos: t.pos, Msg: "unexpected end of input"}
	}
	return nil, unexpected(t, "a literal")
}

func (p *parser) sequence(closer string, depth int) ([]any, bool, error) {
	items := []any{}
	trailingComma := false
	for {
		if p.peek().is(tPunct, closer) {
			p.advance()
			return items, trailingComma, nil
		}
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, false, err
		}
		if err := p.afterValue(); err != nil {
			return nil, false, err
		}
		items = append(items, v)
		trailingComma = false

		t := p.advance()
		if t.is(tPunct, closer) {
			return items, false, nil
		}
		if !t.is(tPunct, ",") {
			return nil, false, unexpected(t, fmt.Sprintf("',' or '%s'", closer))
		}
		trailingComma = true
	}
}

func (p *parser) dict(depth int) (map[string]any, error) {
	out := map[string]any{}
	for {
		if p.peek().is(tPunct, "}") {
			p.advance()
			return out, nil
		}
		keyTok := p.peek()
		k, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		key, ok := k.(string)
		if !ok {
			return nil, &Error{Kind: Syntax, Pos: keyTok.pos, Msg: "dict keys must be strings"}
		}
		if t := p.advance(); !t.is(tPunct, ":") {
			if t.is(tPunct, ",") || t.is(tPunct, "}") {
				return nil, &Error{Kind: Syntax, Pos: t.pos, Msg: "sets are not supported"}
			}
			return nil, unexpected(t, "':'")
		}
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		if err := p.afterValue(); err != nil {
			return nil, err
		}
		out[key] = v

		t := p.advance()
		if t.is(tPunct, "}") {
			return out, nil
		}
		if !t.is(tPunct, ",") {
			return nil, unexpected(t, "',' or '}'")
		}
	}
}

func unexpected(t token, want string) error {
	if t.kind == tEOF {
		return &Error{Kind: Syntax, Pos: t.pos, Msg: "unexpected end of input, expected " + want}
	}
	text := t.text
	if t.kind == tString {
		text = strconv.Quote(t.str)
	}
	return &Error{Kind: Syntax, Pos: t.pos, Msg: fmt.Sprintf("unexpected %s, expected %s", text, want)}
}
