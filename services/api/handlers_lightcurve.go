package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// requireObject answers whether oid exists, writing the 404 itself when it
// does not. An object with an empty lightcurve is still a 200.
func (a *API) requireObject(w http.ResponseWriter, r *http.Request) (string, bool) {
	oid := chi.URLParam(r, "oid")

	exists, err := a.store.ObjectExists(r.Context(), oid)
	if err != nil {
		respondStoreError(w, err)
		return oid, false
	}
	if !exists {
		respondError(w, http.StatusNotFound, fmt.Errorf("object %s: %w", oid, ErrNotFound))
		return oid, false
	}
	return oid, true
}

func (a *API) handleLightcurve(w http.ResponseWriter, r *http.Request) {
	oid, ok := a.requireObject(w, r)
	if !ok {
		return
	}

	detections, err := a.store.ListDetections(r.Context(), oid)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	nonDetections, err := a.store.ListNonDetections(r.Context(), oid)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, Lightcurve{
		Detections:    emptyIfNil(detections),
		NonDetections: emptyIfNil(nonDetections),
	})
}

func (a *API) handleDetections(w http.ResponseWriter, r *http.Request) {
	oid, ok := a.requireObject(w, r)
	if !ok {
		return
	}

	detections, err := a.store.ListDetections(r.Context(), oid)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"detections": emptyIfNil(detections)})
}

func (a *API) handleNonDetections(w http.ResponseWriter, r *http.Request) {
	oid, ok := a.requireObject(w, r)
	if !ok {
		return
	}

	nonDetections, err := a.store.ListNonDetections(r.Context(), oid)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"non_detections": emptyIfNil(nonDetections)})
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
