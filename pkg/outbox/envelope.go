package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message attributes set on published events, so consumers can route
// without decoding the envelope.
const (
	AttrEventType     = "eventType"
	AttrAggregateType = "aggregateType"
	AttrAggregateID   = "aggregateId"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID   uuid.UUID  `json:"userId"`
	TenantID *uuid.UUID `json:"tenantId,omitempty"`
	Role     string     `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
