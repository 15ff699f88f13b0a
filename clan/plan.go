package clan

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/unison/agent"
	"github.com/hupe1980/unison/core"
)

var (
	tagRE      = regexp.MustCompile(`<[^>]+>`)
	fenceRE    = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n(.*?)\n?```$")
	listItemRE = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•]|(?i:step)\s*\d+\s*[:.)-])\s+(.+)$`)

	bracketPrefixRE = regexp.MustCompile(`^\[([^\]]+)\]\s*(.+)$`)
	bracketSuffixRE = regexp.MustCompile(`^(.+?)\s*\[([^\]]+)\]$`)
	assignedToRE    = regexp.MustCompile(`(?i)^(.+?)\s*\((?:assigned to|assignee:|owner:)\s*([^)]+)\)$`)
	arrowRE         = regexp.MustCompile(`^(.+?)\s*(?:->|→|=>)\s*(.+)$`)
	mentionRE       = regexp.MustCompile(`@([\w-]+)`)
	namePrefixRE    = regexp.MustCompile(`^([^:]{1,40}):\s+(.+)$`)
)

var (
	descriptionKeys = []string{"description", "step", "task", "action", "title"}
	assigneeKeys    = []string{"assignee", "agent", "assigned_to", "owner", "member"}
)

// ParsePlan turns the manager's planning output into a Plan. It accepts a
// YAML or JSON step list, numbered or bulleted lines, or plain non-empty
// lines. Assignee annotations naming a roster member are lifted out of the
// step text. A text without steps fails with core.ErrPlanningFailed.
func ParsePlan(goal, text string, roster []core.AgentInfo) (*core.Plan, error) {
	cleaned := agent.StripThink(text)
	cleaned = strings.TrimSpace(tagRE.ReplaceAllString(cleaned, ""))
	if m := fenceRE.FindStringSubmatch(cleaned); m != nil {
		cleaned = strings.TrimSpace(m[1])
	}

	r := resolver{roster: roster}

	steps := r.structured(cleaned)
	if len(steps) == 0 {
		steps = r.lines(cleaned)
	}

	plan, err := core.NewPlan(goal, steps, cleaned)
	if err != nil {
		return nil, core.WrapError(core.CodePlanningFailed, "", err)
	}
	return plan, nil
}

type resolver struct {
	roster []core.AgentInfo
}

// member maps an annotation to a roster identity.
func (r resolver) member(name string) (string, bool) {
	norm := normalizeName(strings.Trim(name, " *_`'\""))
	if norm == "" {
		return "", false
	}
	for _, info := range r.roster {
		if normalizeName(info.Name) == norm {
			return info.Name, true
		}
	}
	return "", false
}

func (r resolver) structured(text string) []core.PlanStep {
	var doc any
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		for _, key := range []string{"steps", "plan"} {
			if list, ok := v[key].([]any); ok {
				items = list
				break
			}
		}
	}

	var steps []core.PlanStep
	for _, item := range items {
		switch v := item.(type) {
		case string:
			steps = append(steps, r.annotated(v))
		case map[string]any:
			if s, ok := r.fromMap(v); ok {
				steps = append(steps, s)
			}
		}
	}
	return steps
}

func (r resolver) fromMap(m map[string]any) (core.PlanStep, bool) {
	var step core.PlanStep
	for _, key := range descriptionKeys {
		if s, ok := m[key].(string); ok {
			step.Description = s
			break
		}
	}
	for _, key := range assigneeKeys {
		if s, ok := m[key].(string); ok {
			if name, ok := r.member(s); ok {
				step.Assignee = name
			}
			break
		}
	}
	if step.Description != "" {
		if step.Assignee == "" {
			return r.annotated(step.Description), true
		}
		return step, true
	}

	// "- writer: draft the article" decodes as a single-key map.
	if len(m) == 1 {
		for k, v := range m {
			s, ok := v.(string)
			if !ok {
				return step, false
			}
			if name, ok := r.member(k); ok {
				return core.PlanStep{Description: s, Assignee: name}, true
			}
			return core.PlanStep{Description: k + ": " + s}, true
		}
	}
	return step, false
}

func (r resolver) lines(text string) []core.PlanStep {
	var listed, plain []core.PlanStep
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := listItemRE.FindStringSubmatch(line); m != nil {
			listed = append(listed, r.annotated(m[1]))
			continue
		}
		plain = append(plain, r.annotated(line))
	}
	if len(listed) > 0 {
		return listed
	}
	return plain
}

// annotated extracts an assignee from the first matching annotation form.
// Annotations that do not name a roster member are left in the text.
func (r resolver) annotated(line string) core.PlanStep {
	line = strings.TrimSpace(strings.ReplaceAll(line, "**", ""))

	if m := bracketPrefixRE.FindStringSubmatch(line); m != nil {
		if name, ok := r.member(m[1]); ok {
			return core.PlanStep{Description: m[2], Assignee: name}
		}
	}
	if m := bracketSuffixRE.FindStringSubmatch(line); m != nil {
		if name, ok := r.member(m[2]); ok {
			return core.PlanStep{Description: m[1], Assignee: name}
		}
	}
	if m := assignedToRE.FindStringSubmatch(line); m != nil {
		if name, ok := r.member(m[2]); ok {
			return core.PlanStep{Description: m[1], Assignee: name}
		}
	}
	if m := arrowRE.FindStringSubmatch(line); m != nil {
		if name, ok := r.member(m[2]); ok {
			return core.PlanStep{Description: m[1], Assignee: name}
		}
	}
	if m := namePrefixRE.FindStringSubmatch(line); m != nil {
		if name, ok := r.member(m[1]); ok {
			return core.PlanStep{Description: m[2], Assignee: name}
		}
	}
	for _, m := range mentionRE.FindAllStringSubmatch(line, -1) {
		if name, ok := r.member(m[1]); ok {
			return core.PlanStep{Description: line, Assignee: name}
		}
	}
	return core.PlanStep{Description: line}
}
