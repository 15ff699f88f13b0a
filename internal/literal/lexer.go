package literal

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tEOF tokenKind = iota
	tIdent
	tString
	tInt
	tFloat
	tPunct // ( ) [ ] { } , : = + -
	tOther // anything else: operators, dots, stray characters
)

type token struct {
	kind tokenKind
	pos  int
	text string // identifier name, punctuation, or raw source for numbers/others
	str  string // decoded value for tString
	i    int64
	f    float64
}

func (t token) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

type lexer struct {
	src  string
	pos  int
	toks []token
}

func lex(src string) ([]token, error) {
	l := &lexer{src: src}
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			l.toks = append(l.toks, token{kind: tEOF, pos: l.pos})
			return l.toks, nil
		}
		if err := l.next(); err != nil {
			return nil, err
		}
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

func (l *lexer) next() error {
	start := l.pos
	c := l.src[l.pos]

	switch {
	case c == '"' || c == '\'':
		return l.lexString()
	case isDigit(c) || (c == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		return l.lexNumber()
	case strings.IndexByte("()[]{},:=+-", c) >= 0:
		l.pos++
		l.toks = append(l.toks, token{kind: tPunct, pos: start, text: string(c)})
		return nil
	}

	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	if r == '_' || unicode.IsLetter(r) {
		l.pos += size
		for l.pos < len(l.src) {
			r, size = utf8.DecodeRuneInString(l.src[l.pos:])
			if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				break
			}
			l.pos += size
		}
		l.toks = append(l.toks, token{kind: tIdent, pos: start, text: l.src[start:l.pos]})
		return nil
	}

	l.pos += size
	l.toks = append(l.toks, token{kind: tOther, pos: start, text: l.src[start:l.pos]})
	return nil
}

func (l *lexer) lexNumber() error {
	start := l.pos
	isFloat := false

	l.digits()
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		isFloat = true
		l.pos++
		l.digits()
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		save := l.pos
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		if l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			isFloat = true
			l.digits()
		} else {
			l.pos = save
		}
	}

	raw := l.src[start:l.pos]
	clean := strings.ReplaceAll(raw, "_", "")
	if strings.HasPrefix(clean, ".") {
		clean = "0" + clean
	}
	if isFloat {
		f, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			return &Error{Kind: Syntax, Pos: start, Msg: "invalid number " + strconv.Quote(raw)}
		}
		l.toks = append(l.toks, token{kind: tFloat, pos: start, text: raw, f: f})
		return nil
	}
	i, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return &Error{Kind: Syntax, Pos: start, Msg: "integer out of range " + strconv.Quote(raw)}
	}
	l.toks = append(l.toks, token{kind: tInt, pos: start, text: raw, i: i})
	return nil
}

func (l *lexer) digits() {
	for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '_') {
		l.pos++
	}
}

func (l *lexer) lexString() error {
	start := l.pos
	q := l.src[l.pos]
	triple := strings.HasPrefix(l.src[l.pos:], strings.Repeat(string(q), 3))
	if triple {
		l.pos += 3
	} else {
		l.pos++
	}

	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return &Error{Kind: Syntax, Pos: start, Msg: "unterminated string"}
		}
		c := l.src[l.pos]
		switch {
		case c == '\\':
			if err := l.escape(&b); err != nil {
				return err
			}
			continue
		case c == q && !triple:
			l.pos++
			l.toks = append(l.toks, token{kind: tString, pos: start, str: b.String()})
			return nil
		case c == q && triple && strings.HasPrefix(l.src[l.pos:], strings.Repeat(string(q), 3)):
			l.pos += 3
			l.toks = append(l.toks, token{kind: tString, pos: start, str: b.String()})
			return nil
		}
		b.WriteByte(c)
		l.pos++
	}
}

func (l *lexer) escape(b *strings.Builder) error {
	at := l.pos
	l.pos++ // backslash
	if l.pos >= len(l.src) {
		return &Error{Kind: Syntax, Pos: at, Msg: "unterminated string"}
	}
	c := l.src[l.pos]
	l.pos++
	switch c {
	case '\n':
		// line continuation
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case '0':
		b.WriteByte(0)
	case 'a':
		b.WriteByte('\a')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '\\', '\'', '"':
		b.WriteByte(c)
	case 'x', 'u', 'U':
		n := map[byte]int{'x': 2, 'u': 4, 'U': 8}[c]
		if l.pos+n > len(l.src) {
			return &Error{Kind: Syntax, Pos: at, Msg: "truncated escape sequence"}
		}
		v, err := strconv.ParseUint(l.src[l.pos:l.pos+n], 16, 32)
		if err != nil || !utf8.ValidRune(rune(v)) {
			return &Error{Kind: Syntax, Pos: at, Msg: "invalid escape sequence"}
		}
		b.WriteRune(rune(v))
		l.pos += n
	default:
		b.WriteByte('\\')
		b.WriteByte(c)
	}
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
