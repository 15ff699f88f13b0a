package tool

import (
	"fmt"
	"strings"

	"github.com/hupe1980/unison/internal/literal"
)

// Signature renders the call shape of a tool, e.g. `add(a: integer, b: integer = 3)`.
func Signature(spec Spec) string {
	parts := make([]string, len(spec.Parameters))
	for i, p := range spec.Parameters {
		parts[i] = fmt.Sprintf("%s: %s", p.Name, p.Kind)
		if !p.Required {
			parts[i] += " = " + literal.Format(p.Default)
		}
	}
	return spec.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Card renders the capability card shown to the model for one tool.
func Card(spec Spec) string {
	var b strings.Builder
	b.WriteString(Signature(spec))
	if d := strings.TrimSpace(spec.Description); d != "" {
		b.WriteString("\n  ")
		b.WriteString(d)
	}
	for _, p := range spec.Parameters {
		flag := "required"
		if !p.Required {
			flag = "default " + literal.Format(p.Default)
		}
		fmt.Fprintf(&b, "\n  - %s (%s, %s)", p.Name, p.Kind, flag)
		if d := strings.TrimSpace(p.Description); d != "" {
			b.WriteString(": ")
			b.WriteString(d)
		}
	}
	return b.String()
}

// Cards renders every tool of reg, separated by blank lines.
func Cards(reg *Registry) string {
	if reg == nil || reg.Len() == 0 {
		return "No tools available."
	}
	specs := reg.Specs()
	cards := make([]string, len(specs))
	for i, s := range specs {
		cards[i] = Card(s)
	}
	return strings.Join(cards, "\n\n")
}
