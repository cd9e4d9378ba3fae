package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (a *API) handleListObjects(w http.ResponseWriter, r *http.Request) {
	q, err := ParseObjectQuery(r.URL.Query(), a.config.PageSizeMax)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	page, err := a.store.ListObjects(r.Context(), q)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	// An empty page is a 404, matching the behaviour clients of the
	// original broker rely on.
	if len(page.Items) == 0 {
		respondError(w, http.StatusNotFound, errors.New("objects not found"))
		return
	}

	respondJSON(w, http.StatusOK, page)
}

func (a *API) handleGetObject(w http.ResponseWriter, r *http.Request) {
	oid := chi.URLParam(r, "oid")

	detail, err := a.store.GetObject(r.Context(), oid)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

func (a *API) handleClassifiers(w http.ResponseWriter, r *http.Request) {
	classifiers, err := a.store.ListClassifiers(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if classifiers == nil {
		classifiers = []Classifier{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"classifiers": classifiers})
}
