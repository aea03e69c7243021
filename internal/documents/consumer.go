package documents

import (
	"context"
	"encoding/json"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/attestly/poa-backend/pkg/enums"
	pkgerrors "github.com/attestly/poa-backend/pkg/errors"
	"github.com/attestly/poa-backend/pkg/logger"
	"github.com/attestly/poa-backend/pkg/outbox"
)

// SubmittedConsumer watches the domain topic for poa_submitted events and
// runs the assembly pipeline for each one.
type SubmittedConsumer struct {
	service      Service
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

func NewSubmittedConsumer(service Service, subscription *pubsub.Subscriber, logg *logger.Logger) (*SubmittedConsumer, error) {
	if service == nil {
		return nil, errors.New("document service is required")
	}
	if subscription == nil {
		return nil, errors.New("domain subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &SubmittedConsumer{service: service, subscription: subscription, logg: logg}, nil
}

// Run processes submission events until the context is canceled.
func (c *SubmittedConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// submittedEvent is the slice of the envelope payload this consumer needs.
type submittedEvent struct {
	POAID uuid.UUID `json:"poaId"`
}

// process returns true when the message should be acked. Malformed messages
// are acked and logged: redelivery cannot fix them. Only transient pipeline
// failures nack for redelivery.
func (c *SubmittedConsumer) process(ctx context.Context, msg *pubsub.Message) bool {
	eventType := msg.Attributes[outbox.AttrEventType]
	if eventType != string(enums.EventPOASubmitted) {
		return true
	}

	logCtx := c.logg.WithFields(ctx, map[string]any{
		"messageId": msg.ID,
		"eventType": eventType,
	})

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "malformed event envelope", err)
		return true
	}
	var event submittedEvent
	if err := json.Unmarshal(envelope.Data, &event); err != nil {
		c.logg.Error(logCtx, "malformed submission event", err)
		return true
	}
	if event.POAID == uuid.Nil {
		c.logg.Error(logCtx, "submission event missing poa id", errors.New("empty poaId"))
		return true
	}

	if _, err := c.service.GenerateForPOA(logCtx, event.POAID); err != nil {
		if pkgerrors.Retryable(err) {
			c.logg.Warn(logCtx, "assembly failed, requesting redelivery")
			return false
		}
		// Terminal failures were already recorded by the pipeline; the
		// message is done either way.
		c.logg.Error(logCtx, "assembly failed terminally", err)
		return true
	}
	return true
}
