package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/attestly/poa-backend/api/responses"
	"github.com/attestly/poa-backend/internal/documents"
	"github.com/attestly/poa-backend/internal/poas"
	"github.com/attestly/poa-backend/pkg/config"
	"github.com/attestly/poa-backend/pkg/db/models"
	pkgerrors "github.com/attestly/poa-backend/pkg/errors"
	"github.com/attestly/poa-backend/pkg/logger"
)

type documentDownloadResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DocumentHistory lists every document version for the POA, newest first.
func DocumentHistory(docSvc documents.Service, poaSvc poas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		poaID, ok := authorizePOA(poaSvc, w, r, logg)
		if !ok {
			return
		}

		docs, err := docSvc.ListByPOA(r.Context(), poaID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, documents.ListFromModels(docs))
	}
}

// DocumentDownload issues a short-lived signed URL for a generated
// document. Only documents belonging to the caller's POA are reachable.
func DocumentDownload(docSvc documents.Service, poaSvc poas.Service, gcsCfg config.GCSConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		poaID, ok := authorizePOA(poaSvc, w, r, logg)
		if !ok {
			return
		}

		documentID, err := pathUUID(r, "documentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		docs, err := docSvc.ListByPOA(r.Context(), poaID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !containsDocument(docs, documentID) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "document not found"))
			return
		}

		url, err := docSvc.SignedURL(r.Context(), documentID, gcsCfg.DownloadURLExpiry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, documentDownloadResponse{
			URL:       url,
			ExpiresAt: time.Now().UTC().Add(gcsCfg.DownloadURLExpiry),
		})
	}
}

// DocumentRetry re-runs assembly for a draft whose last generation failed.
func DocumentRetry(docSvc documents.Service, poaSvc poas.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		poaID, ok := authorizePOA(poaSvc, w, r, logg)
		if !ok {
			return
		}

		doc, err := docSvc.GenerateForPOA(r.Context(), poaID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, documents.FromModel(doc))
	}
}

// authorizePOA resolves the poaId path parameter and confirms the caller
// owns it. Writes the error response itself on failure.
func authorizePOA(poaSvc poas.Service, w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	actor, err := requireActor(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, false
	}

	poaID, err := pathUUID(r, "poaId")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, false
	}

	if _, err := poaSvc.GetPOA(r.Context(), actor, poaID); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, false
	}
	return poaID, true
}

func containsDocument(docs []models.POADocument, id uuid.UUID) bool {
	for _, d := range docs {
		if d.ID == id {
			return true
		}
	}
	return false
}
