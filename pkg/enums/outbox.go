package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregatePOA          OutboxAggregateType = "poa"
	AggregateAgent        OutboxAggregateType = "agent"
	AggregateDocument     OutboxAggregateType = "document"
	AggregateNotification OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregatePOA,
	AggregateAgent,
	AggregateDocument,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventPOASubmitted      OutboxEventType = "poa_submitted"
	EventPOAActivated      OutboxEventType = "poa_activated"
	EventPOARevoked        OutboxEventType = "poa_revoked"
	EventPOAExpired        OutboxEventType = "poa_expired"
	EventAgentDesignated   OutboxEventType = "agent_designated"
	EventAgentAccepted     OutboxEventType = "agent_accepted"
	EventAgentDeclined     OutboxEventType = "agent_declined"
	EventDocumentGenerated OutboxEventType = "document_generated"
	EventDocumentFailed    OutboxEventType = "document_failed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventPOASubmitted,
	EventPOAActivated,
	EventPOARevoked,
	EventPOAExpired,
	EventAgentDesignated,
	EventAgentAccepted,
	EventAgentDeclined,
	EventDocumentGenerated,
	EventDocumentFailed,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
