package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/attestly/poa-backend/pkg/db/models"
	"github.com/attestly/poa-backend/pkg/enums"
	"github.com/attestly/poa-backend/pkg/logger"
	"github.com/attestly/poa-backend/pkg/outbox"
)

// EventConsumer turns domain events into in-app notification rows. Each
// mapped event produces one tenant-scoped row; events without a mapping are
// acked and ignored.
type EventConsumer struct {
	repo         Repository
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

func NewEventConsumer(repo Repository, subscription *pubsub.Subscriber, logg *logger.Logger) (*EventConsumer, error) {
	if repo == nil {
		return nil, errors.New("notifications repository is required")
	}
	if subscription == nil {
		return nil, errors.New("notification subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &EventConsumer{repo: repo, subscription: subscription, logg: logg}, nil
}

// Run processes domain events until the context is canceled.
func (c *EventConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// domainEvent is the superset of event payload fields the consumer reads.
type domainEvent struct {
	POAID    uuid.UUID `json:"poaId"`
	TenantID uuid.UUID `json:"tenantId"`
	Email    string    `json:"email"`
	FullName string    `json:"fullName"`
	Filename string    `json:"filename"`
}

func (c *EventConsumer) process(ctx context.Context, msg *pubsub.Message) bool {
	eventType := enums.OutboxEventType(msg.Attributes[outbox.AttrEventType])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"messageId": msg.ID,
		"eventType": eventType,
	})

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "malformed event envelope", err)
		return true
	}
	var event domainEvent
	if err := json.Unmarshal(envelope.Data, &event); err != nil {
		c.logg.Error(logCtx, "malformed event payload", err)
		return true
	}

	notification := buildNotification(eventType, event)
	if notification == nil {
		return true
	}
	if notification.TenantID == uuid.Nil {
		c.logg.Warn(logCtx, "event missing tenant, dropping notification")
		return true
	}

	if err := c.repo.Create(logCtx, notification); err != nil {
		c.logg.Error(logCtx, "persisting notification", err)
		return false
	}
	return true
}

func buildNotification(eventType enums.OutboxEventType, event domainEvent) *models.Notification {
	link := poaLink(event.POAID)

	switch eventType {
	case enums.EventAgentDesignated:
		return &models.Notification{
			TenantID: event.TenantID,
			Type:     enums.NotificationTypeAgentDesignated,
			Title:    "Agent designated",
			Message:  fmt.Sprintf("%s has been designated as an agent and asked to respond.", event.FullName),
			Link:     link,
		}
	case enums.EventAgentAccepted:
		return &models.Notification{
			TenantID: event.TenantID,
			Type:     enums.NotificationTypeAgentAccepted,
			Title:    "Agent accepted",
			Message:  fmt.Sprintf("%s accepted the agent appointment.", event.FullName),
			Link:     link,
		}
	case enums.EventAgentDeclined:
		return &models.Notification{
			TenantID: event.TenantID,
			Type:     enums.NotificationTypeAgentDeclined,
			Title:    "Agent declined",
			Message:  fmt.Sprintf("%s declined the agent appointment.", event.FullName),
			Link:     link,
		}
	case enums.EventPOAActivated:
		return &models.Notification{
			TenantID: event.TenantID,
			Type:     enums.NotificationTypePOAActivated,
			Title:    "Power of attorney active",
			Message:  "The notarized copy was received and the power of attorney is now active.",
			Link:     link,
		}
	case enums.EventPOARevoked:
		return &models.Notification{
			TenantID: event.TenantID,
			Type:     enums.NotificationTypePOARevoked,
			Title:    "Power of attorney revoked",
			Message:  "The power of attorney has been revoked.",
			Link:     link,
		}
	case enums.EventPOAExpired:
		return &models.Notification{
			TenantID: event.TenantID,
			Type:     enums.NotificationTypePOAExpired,
			Title:    "Power of attorney expired",
			Message:  "A limited power of attorney has passed its expiration date.",
			Link:     link,
		}
	case enums.EventDocumentGenerated:
		return &models.Notification{
			TenantID: event.TenantID,
			Type:     enums.NotificationTypeDocumentReady,
			Title:    "Document ready",
			Message:  "The power of attorney document has been generated and is ready for signing.",
			Link:     link,
		}
	}
	return nil
}

func poaLink(poaID uuid.UUID) *string {
	if poaID == uuid.Nil {
		return nil
	}
	link := "/poas/" + poaID.String()
	return &link
}
