package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/attestly/poa-backend/api/responses"
	"github.com/attestly/poa-backend/internal/lifecycle"
	"github.com/attestly/poa-backend/internal/poas"
	"github.com/attestly/poa-backend/pkg/db/models"
	"github.com/attestly/poa-backend/pkg/logger"
)

// AcceptAppointment records the caller's acceptance of an agent
// designation. Identity is matched on the authenticated email.
func AcceptAppointment(svc lifecycle.Service, logg *logger.Logger) http.HandlerFunc {
	return appointmentHandler(svc.AcceptAppointment, logg)
}

// DeclineAppointment records the caller's refusal of an agent designation.
func DeclineAppointment(svc lifecycle.Service, logg *logger.Logger) http.HandlerFunc {
	return appointmentHandler(svc.DeclineAppointment, logg)
}

func appointmentHandler(
	respond func(ctx context.Context, agentID uuid.UUID, actor lifecycle.Actor) (*models.Agent, error),
	logg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agentID, err := pathUUID(r, "agentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agent, err := respond(r.Context(), agentID, lifecycleActor(actor))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, poas.AgentFromModel(agent))
	}
}
