package tool

import (
	"strings"

	"github.com/hupe1980/unison/internal/literal"
)

// parseRepaired parses raw, retrying with common model formatting slips
// fixed: code fences or backticks around the call, a trailing semicolon,
// and missing closing quotes or brackets. Every candidate goes through the
// same literal parser. When nothing parses, the error for the original
// text is returned.
func parseRepaired(raw string) (*literal.Call, error) {
	call, firstErr := literal.ParseCall(raw)
	if firstErr == nil {
		return call, nil
	}
	seen := map[string]bool{raw: true}
	for _, candidate := range repairCandidates(raw) {
		if seen[candidate] {
			continue
		}
		seen[candidate] = true
		if call, err := literal.ParseCall(candidate); err == nil {
			return call, nil
		}
	}
	return nil, firstErr
}

func repairCandidates(raw string) []string {
	unwrapped := stripFences(raw)
	unwrapped = strings.TrimSuffix(strings.TrimSpace(unwrapped), ";")
	return []string{unwrapped, closeOpenDelimiters(unwrapped)}
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.Contains(s[:i], "(") {
			s = s[i+1:] // language tag line
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(strings.Trim(s, "`"))
}

// closeOpenDelimiters appends a missing closing quote and the closers for
// every bracket still open at the end of s.
func closeOpenDelimiters(s string) string {
	var stack []byte
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(':
			stack = append(stack, ')')
		case '[':
			stack = append(stack, ']')
		case '{':
			stack = append(stack, '}')
		case ')', ']', '}':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder
	b.WriteString(s)
	if quote != 0 {
		b.WriteByte(quote)
	}
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}
