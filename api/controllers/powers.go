package controllers

import (
	"net/http"

	"github.com/attestly/poa-backend/api/responses"
	"github.com/attestly/poa-backend/internal/powers"
	"github.com/attestly/poa-backend/pkg/logger"
)

// PowerCatalog returns the full power taxonomy with ordered sub-powers.
func PowerCatalog(svc powers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.ListCatalog(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, powers.CatalogFromModels(categories))
	}
}
