package clan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/unison/agent"
	"github.com/hupe1980/unison/core"
)

var managerAliases = map[string]bool{
	"ceo":         true,
	"manager":     true,
	"ceo/manager": true,
	"ceo-manager": true,
	"ceo manager": true,
}

// normalizeName lowercases name and strips the "agent" and "the" affixes
// models like to add when addressing a member.
func normalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.TrimPrefix(s, "the ")
	s = strings.TrimPrefix(s, "agent ")
	s = strings.TrimSuffix(s, " agent")
	return strings.TrimSpace(s)
}

// Directory resolves member names used in send_message. It is built once
// by New and read-only afterwards.
type Directory struct {
	manager string
	members map[string]*agent.Agent
	byNorm  map[string]*agent.Agent
}

func newDirectory(manager *agent.Agent, members []*agent.Agent) *Directory {
	d := &Directory{
		manager: manager.Identity(),
		members: make(map[string]*agent.Agent, len(members)),
		byNorm:  make(map[string]*agent.Agent, len(members)),
	}
	for _, m := range members {
		d.members[m.Identity()] = m
		d.byNorm[normalizeName(m.Identity())] = m
	}
	return d
}

// Resolve returns the member addressed by name. Names match exactly first,
// then case-insensitively after affix stripping. The manager, under its own
// name or an alias such as "ceo", cannot be addressed.
func (d *Directory) Resolve(name string) (*agent.Agent, error) {
	norm := normalizeName(name)
	if norm == "" {
		return nil, core.NewError(core.CodeUnknownAgent, "", "agent name is empty")
	}
	if managerAliases[norm] || norm == normalizeName(d.manager) {
		return nil, core.NewError(core.CodeUnknownAgent, "",
			fmt.Sprintf("%q is the manager; messages can only be sent to members: %s", name, strings.Join(d.Members(), ", ")))
	}
	if m, ok := d.members[strings.TrimSpace(name)]; ok {
		return m, nil
	}
	if m, ok := d.byNorm[norm]; ok {
		return m, nil
	}
	return nil, core.NewError(core.CodeUnknownAgent, "",
		fmt.Sprintf("no member named %q; available members: %s", name, strings.Join(d.Members(), ", ")))
}

// Members returns the sorted identities that can be addressed.
func (d *Directory) Members() []string {
	out := make([]string, 0, len(d.members))
	for name := range d.members {
		if name != d.manager {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Manager returns the manager's identity.
func (d *Directory) Manager() string { return d.manager }
