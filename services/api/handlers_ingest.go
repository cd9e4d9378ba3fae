package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

const maxAlertBatch = 1000

func (a *API) handleIngestAlerts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Alerts []Alert `json:"alerts"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Alerts) == 0 {
		respondError(w, http.StatusBadRequest, errors.New("alerts are required"))
		return
	}
	if len(req.Alerts) > maxAlertBatch {
		respondError(w, http.StatusBadRequest, fmt.Errorf("batch of %d exceeds maximum %d", len(req.Alerts), maxAlertBatch))
		return
	}
	for i, alert := range req.Alerts {
		if err := alert.Validate(); err != nil {
			respondError(w, http.StatusBadRequest, fmt.Errorf("alert %d: %w", i, err))
			return
		}
	}

	summary, err := a.store.IngestAlerts(r.Context(), req.Alerts)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	alertsIngested.Add(float64(summary.Alerts))

	receipt := uuid.New()
	a.publishJSON(r.Context(), alertsIngestedSubject, map[string]any{
		"receipt_id": receipt,
		"alerts":     summary.Alerts,
		"objects":    summary.Objects,
	})

	respondJSON(w, http.StatusAccepted, map[string]any{
		"receipt_id": receipt,
		"summary":    summary,
	})
}
