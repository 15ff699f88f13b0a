package agent

import (
	"regexp"
	"strings"
)

var thinkRE = regexp.MustCompile(`(?s)<think>(.*?)</think>`)

// StripThink removes <think> blocks, including one left open at the end.
func StripThink(s string) string {
	s = thinkRE.ReplaceAllString(s, "")
	if i := strings.Index(s, "<think>"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Thoughts returns the trimmed contents of every closed <think> block.
func Thoughts(s string) []string {
	var out []string
	for _, m := range thinkRE.FindAllStringSubmatch(s, -1) {
		if t := strings.TrimSpace(m[1]); t != "" {
			out = append(out, t)
		}
	}
	return out
}
