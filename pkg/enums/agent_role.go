package enums

import "fmt"

// AgentRole distinguishes how an agent is appointed.
type AgentRole string

const (
	AgentRolePrimary   AgentRole = "primary"
	AgentRoleSuccessor AgentRole = "successor"
	AgentRoleCoAgent   AgentRole = "co_agent"
)

var validAgentRoles = []AgentRole{
	AgentRolePrimary,
	AgentRoleSuccessor,
	AgentRoleCoAgent,
}

func (r AgentRole) String() string {
	return string(r)
}

func (r AgentRole) IsValid() bool {
	for _, candidate := range validAgentRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

func ParseAgentRole(value string) (AgentRole, error) {
	for _, candidate := range validAgentRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid agent role %q", value)
}
