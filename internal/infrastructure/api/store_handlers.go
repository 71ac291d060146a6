package api

import (
	"net/http"

	"storefront-insights/internal/application"
	"storefront-insights/internal/domain"

	"github.com/rs/zerolog"
)

type storesResponse struct {
	Stores []domain.StoreRef `json:"stores"`
}

// StoresHandler serves GET /api/stores.
func StoresHandler(stores *application.StoreService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refs, err := stores.Stores(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, storesResponse{Stores: refs})
	}
}
