package core

// AgentRole classifies how an agent participates in a run.
type AgentRole string

const (
	// RoleIndividual is a standalone agent outside any clan.
	RoleIndividual AgentRole = "individual"
	// RoleManager is the clan member that plans and delegates.
	RoleManager AgentRole = "manager"
	// RoleMember is any other clan member.
	RoleMember AgentRole = "member"
)

// AgentInfo carries identifying details about an agent used in contexts and logs.
type AgentInfo struct {
	Name        string
	Description string
	Role        AgentRole
}
