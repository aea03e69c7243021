package enums

import "fmt"

// AgentStatus tracks an agent's response to their appointment.
type AgentStatus string

const (
	AgentStatusPending  AgentStatus = "pending"
	AgentStatusAccepted AgentStatus = "accepted"
	AgentStatusDeclined AgentStatus = "declined"
)

var validAgentStatuses = []AgentStatus{
	AgentStatusPending,
	AgentStatusAccepted,
	AgentStatusDeclined,
}

func (s AgentStatus) String() string {
	return string(s)
}

func (s AgentStatus) IsValid() bool {
	for _, candidate := range validAgentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the appointment can no longer change.
func (s AgentStatus) IsTerminal() bool {
	return s == AgentStatusAccepted || s == AgentStatusDeclined
}

func ParseAgentStatus(value string) (AgentStatus, error) {
	for _, candidate := range validAgentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid agent status %q", value)
}
