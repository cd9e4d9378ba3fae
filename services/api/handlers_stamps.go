package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// stampKinds are the cutout images shipped with every stamped alert.
var stampKinds = []string{"science", "template", "difference"}

func stampKey(oid string, candid int64, kind string) string {
	return fmt.Sprintf("stamps/%s/%d/%s.fits.gz", oid, candid, kind)
}

func (a *API) handleStamps(w http.ResponseWriter, r *http.Request) {
	if a.stamps == nil || a.config.StampBucket == "" {
		respondError(w, http.StatusServiceUnavailable, errors.New("stamp store is not configured"))
		return
	}

	oid := chi.URLParam(r, "oid")
	candid, err := strconv.ParseInt(r.URL.Query().Get("candid"), 10, 64)
	if err != nil || candid <= 0 {
		respondError(w, http.StatusBadRequest, errors.New("candid is required"))
		return
	}

	detection, err := a.store.GetDetection(r.Context(), oid, candid)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if !detection.HasStamp {
		respondError(w, http.StatusNotFound, fmt.Errorf("detection %d has no stamp", candid))
		return
	}

	urls := make(map[string]string, len(stampKinds))
	for _, kind := range stampKinds {
		url, err := a.stamps.PresignGet(r.Context(), a.config.StampBucket, stampKey(oid, candid, kind), stampURLExpiry)
		if err != nil {
			respondError(w, http.StatusInternalServerError, fmt.Errorf("presign %s stamp: %w", kind, err))
			return
		}
		urls[kind] = url
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"oid":        oid,
		"candid":     candid,
		"urls":       urls,
		"expires_in": int(stampURLExpiry.Seconds()),
	})
}
