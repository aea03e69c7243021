package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/attestly/poa-backend/api/responses"
	"github.com/attestly/poa-backend/api/validators"
	"github.com/attestly/poa-backend/internal/lifecycle"
	"github.com/attestly/poa-backend/internal/poas"
	"github.com/attestly/poa-backend/internal/validation"
	"github.com/attestly/poa-backend/pkg/enums"
	pkgerrors "github.com/attestly/poa-backend/pkg/errors"
	"github.com/attestly/poa-backend/pkg/logger"
	"github.com/attestly/poa-backend/pkg/pagination"
)

type listPOAsResponse struct {
	Items  []poas.POADTO `json:"items"`
	Cursor string        `json:"cursor,omitempty"`
}

type activatePOARequest struct {
	NotarizedCopyURL string `json:"notarizedCopyUrl" validate:"required,url"`
}

// CreatePOA starts a new draft from the submitted interview payload. The
// payload is stored as-is; full validation happens at submission.
func CreatePOA(svc poas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload validation.Payload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		poa, err := svc.CreateDraft(r.Context(), actor, &payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, poas.FromModel(poa, time.Now().UTC()))
	}
}

func GetPOA(svc poas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "poaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		poa, err := svc.GetPOA(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, poas.FromModel(poa, time.Now().UTC()))
	}
}

// ListPOAs returns the caller's POAs newest first, with cursor pagination
// and an optional status filter.
func ListPOAs(svc poas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		var status *enums.POAStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParsePOAStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}

		items, next, err := svc.ListPOAs(r.Context(), actor, params, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := listPOAsResponse{Items: poas.ListFromModels(items, time.Now().UTC())}
		if next != nil {
			resp.Cursor = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, resp)
	}
}

// UpdatePOA replaces the draft payload. Only drafts accept edits.
func UpdatePOA(svc poas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "poaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload validation.Payload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		poa, err := svc.UpdateDraft(r.Context(), actor, id, &payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, poas.FromModel(poa, time.Now().UTC()))
	}
}

// SubmitPOA runs full validation, persists the normalized instrument, and
// queues document assembly.
func SubmitPOA(svc poas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "poaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		poa, err := svc.Submit(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, poas.FromModel(poa, time.Now().UTC()))
	}
}

// ActivatePOA records the notarized copy and moves the POA to active.
func ActivatePOA(svc lifecycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "poaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req activatePOARequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		poa, err := svc.ActivatePOA(r.Context(), id, req.NotarizedCopyURL, lifecycleActor(actor))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, poas.FromModel(poa, time.Now().UTC()))
	}
}

func RevokePOA(svc lifecycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := pathUUID(r, "poaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		poa, err := svc.RevokePOA(r.Context(), id, lifecycleActor(actor))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, poas.FromModel(poa, time.Now().UTC()))
	}
}
