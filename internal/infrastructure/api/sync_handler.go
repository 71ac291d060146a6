package api

import (
	"net/http"

	"storefront-insights/internal/application"
	"storefront-insights/internal/domain"

	"github.com/rs/zerolog"
)

type syncStartedResponse struct {
	Message string `json:"message"`
	RunID   string `json:"runId"`
}

type syncCompletedResponse struct {
	Message string             `json:"message"`
	Report  *domain.SyncReport `json:"report"`
}

// SyncHandler serves POST /api/sync. With wait=true the response carries
// the full report; otherwise the run detaches and the caller polls the
// status endpoint with the returned run id.
func SyncHandler(sync *application.SyncService, insights *application.InsightsService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		query := r.URL.Query()

		store, err := sync.ResolveStore(ctx, query.Get("storeId"))
		if err != nil {
			writeStoreError(w, logger, err, func() ([]domain.StoreRef, error) {
				return insights.AvailableStores(ctx)
			})
			return
		}

		if query.Get("wait") == "true" {
			report, err := sync.RunAndWait(ctx, store)
			if err != nil {
				writeError(w, logger, err)
				return
			}
			writeJSON(w, http.StatusOK, syncCompletedResponse{
				Message: "Sync completed",
				Report:  report,
			})
			return
		}

		runID := sync.RunBackground(store)
		writeJSON(w, http.StatusAccepted, syncStartedResponse{
			Message: "Sync started",
			RunID:   runID,
		})
	}
}

// SyncStatusHandler serves GET /api/sync/status for the dashboard's poll
// loop.
func SyncStatusHandler(sync *application.SyncService, insights *application.InsightsService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		store, err := sync.ResolveStore(ctx, r.URL.Query().Get("storeId"))
		if err != nil {
			writeStoreError(w, logger, err, func() ([]domain.StoreRef, error) {
				return insights.AvailableStores(ctx)
			})
			return
		}

		status, err := sync.Status(ctx, store.ID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		if status == nil {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "No sync run recorded for this store."})
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}
