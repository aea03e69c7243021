package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/attestly/poa-backend/api/middleware"
	"github.com/attestly/poa-backend/internal/lifecycle"
	"github.com/attestly/poa-backend/internal/poas"
	pkgerrors "github.com/attestly/poa-backend/pkg/errors"
)

// requireActor extracts the authenticated principal from the request
// context. The auth middleware guarantees both ids are present on
// protected routes, so a miss here is a wiring bug, not a client error.
func requireActor(r *http.Request) (poas.Actor, error) {
	userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return poas.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "missing user context")
	}
	tenantID, err := uuid.Parse(middleware.TenantIDFromContext(r.Context()))
	if err != nil {
		return poas.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "missing tenant context")
	}
	return poas.Actor{
		UserID:   userID,
		TenantID: tenantID,
		Email:    middleware.EmailFromContext(r.Context()),
	}, nil
}

func lifecycleActor(a poas.Actor) lifecycle.Actor {
	return lifecycle.Actor{UserID: a.UserID, TenantID: a.TenantID, Email: a.Email}
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid identifier").WithDetails(map[string]any{"param": param})
	}
	return id, nil
}
