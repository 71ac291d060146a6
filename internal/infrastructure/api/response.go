// Package api holds the REST handlers and the shared error-to-status
// translation.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"storefront-insights/internal/domain"

	"github.com/rs/zerolog"
)

// errorResponse is the JSON envelope for every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// storeErrorResponse is the envelope for a store not-found response. The
// list always serializes, as "availableStores": [] when nothing is
// connected, so the dashboard can branch on it without a presence check.
type storeErrorResponse struct {
	Error           string            `json:"error"`
	AvailableStores []domain.StoreRef `json:"availableStores"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps the domain error taxonomy onto HTTP statuses. Anything
// untyped is an internal error; the detail goes to the log, not the
// client.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var (
		validation  *domain.ValidationError
		notFound    *domain.NotFoundError
		signature   *domain.SignatureError
		forbidden   *domain.ForbiddenError
		remoteFetch *domain.RemoteFetchError
		unreachable *domain.UnreachableDependencyError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validation.Message})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: notFound.Message})
	case errors.As(err, &signature):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.As(err, &forbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: forbidden.Message})
	case errors.As(err, &remoteFetch):
		// The remote body goes to the caller; it is what Shopify said
		// about their store, not an internal detail.
		logger.Error().Err(err).Msg("Remote fetch failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: remoteFetch.Error()})
	case errors.As(err, &unreachable):
		logger.Error().Err(err).Msg("Backing service unreachable")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Database is unreachable. Please try again later."})
	default:
		logger.Error().Err(err).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}

// writeStoreError behaves like writeError but enriches a store not-found
// response with the list of connected stores, so the dashboard can offer
// a picker instead of a dead end. Listing failures degrade to an empty
// list rather than masking the 404.
func writeStoreError(w http.ResponseWriter, logger zerolog.Logger, err error, listStores func() ([]domain.StoreRef, error)) {
	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) && notFound.Resource == "store" {
		stores, listErr := listStores()
		if listErr != nil {
			logger.Warn().Err(listErr).Msg("Failed to list stores for not-found response")
		}
		if stores == nil {
			stores = []domain.StoreRef{}
		}
		writeJSON(w, http.StatusNotFound, storeErrorResponse{Error: notFound.Message, AvailableStores: stores})
		return
	}
	writeError(w, logger, err)
}
