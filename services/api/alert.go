package api

import (
	"errors"
	"fmt"
)

// Alert is one survey alert as delivered to the ingest endpoint.
type Alert struct {
	Candid      int64          `json:"candid"`
	OID         string         `json:"oid"`
	MJD         float64        `json:"mjd"`
	FID         int            `json:"fid"`
	RA          float64        `json:"ra"`
	Dec         float64        `json:"dec"`
	MagPSF      float64        `json:"magpsf"`
	SigmaPSF    float64        `json:"sigmapsf"`
	MagPSFCorr  *float64       `json:"magpsf_corr"`
	SigmaCorr   *float64       `json:"sigmapsf_corr"`
	RB          float64        `json:"rb"`
	IsDiffPos   int            `json:"isdiffpos"`
	HasStamp    bool           `json:"has_stamp"`
	ExtraFields map[string]any `json:"extra_fields"`

	// Prior upper limits shipped with the alert packet.
	NonDetections []NonDetectionInput `json:"non_detections"`
}

// NonDetectionInput is a non-detection epoch carried inside an alert packet.
type NonDetectionInput struct {
	MJD        float64 `json:"mjd"`
	FID        int     `json:"fid"`
	DiffMagLim float64 `json:"diffmaglim"`
}

// Validate rejects alerts that cannot be stored.
func (a Alert) Validate() error {
	if a.Candid <= 0 {
		return errors.New("candid must be positive")
	}
	if a.OID == "" {
		return errors.New("oid is required")
	}
	if a.MJD <= 0 {
		return errors.New("mjd must be positive")
	}
	if a.RA < 0 || a.RA >= 360 {
		return fmt.Errorf("ra %v out of range [0, 360)", a.RA)
	}
	if a.Dec < -90 || a.Dec > 90 {
		return fmt.Errorf("dec %v out of range [-90, 90]", a.Dec)
	}
	switch a.IsDiffPos {
	case -1, 1:
	default:
		return fmt.Errorf("isdiffpos must be -1 or 1, got %d", a.IsDiffPos)
	}
	return nil
}

// IngestSummary reports what one ingest batch changed.
type IngestSummary struct {
	Alerts        int            `json:"alerts"`
	NonDetections int            `json:"non_detections"`
	Objects       map[string]int `json:"objects"`
}
