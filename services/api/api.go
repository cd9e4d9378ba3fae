package api

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"starcat/pkg/bus"
	gos3 "starcat/pkg/s3"
)

// Object is an aggregated astronomical object built from every alert the
// survey emitted for one position on the sky.
type Object struct {
	OID       string    `json:"oid" db:"oid"`
	NDet      int       `json:"ndet" db:"ndet"`
	MeanRA    float64   `json:"meanra" db:"meanra"`
	MeanDec   float64   `json:"meandec" db:"meandec"`
	SigmaRA   float64   `json:"sigmara" db:"sigmara"`
	SigmaDec  float64   `json:"sigmadec" db:"sigmadec"`
	FirstMJD  float64   `json:"firstmjd" db:"firstmjd"`
	LastMJD   float64   `json:"lastmjd" db:"lastmjd"`
	DeltaJD   float64   `json:"deltajd" db:"deltajd"`
	Corrected bool      `json:"corrected" db:"corrected"`
	Stellar   bool      `json:"stellar" db:"stellar"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Classification is one classifier's probability for an object belonging to
// a taxonomy class.
type Classification struct {
	ClassifierName string  `json:"classifier_name" db:"classifier_name"`
	ClassName      string  `json:"class_name" db:"class_name"`
	Probability    float64 `json:"probability" db:"probability"`
	Ranking        int     `json:"ranking" db:"ranking"`
}

// ObjectListItem flattens an object with its (possibly absent) joined
// classification row, mirroring the shape of the list endpoint payload.
type ObjectListItem struct {
	Object
	ClassifierName *string  `json:"classifier_name" db:"classifier_name"`
	ClassName      *string  `json:"class_name" db:"class_name"`
	Probability    *float64 `json:"probability" db:"probability"`
}

// ObjectDetail is a single object together with all of its classifications.
type ObjectDetail struct {
	Object
	Classifications []Classification `json:"classifications"`
}

// Detection is a single positive alert epoch for an object.
type Detection struct {
	Candid      int64          `json:"candid" db:"candid"`
	OID         string         `json:"oid" db:"oid"`
	MJD         float64        `json:"mjd" db:"mjd"`
	FID         int            `json:"fid" db:"fid"`
	RA          float64        `json:"ra" db:"ra"`
	Dec         float64        `json:"dec" db:"dec"`
	MagPSF      float64        `json:"magpsf" db:"magpsf"`
	SigmaPSF    float64        `json:"sigmapsf" db:"sigmapsf"`
	MagPSFCorr  *float64       `json:"magpsf_corr" db:"magpsf_corr"`
	SigmaCorr   *float64       `json:"sigmapsf_corr" db:"sigmapsf_corr"`
	RB          float64        `json:"rb" db:"rb"`
	IsDiffPos   int            `json:"isdiffpos" db:"isdiffpos"`
	HasStamp    bool           `json:"has_stamp" db:"has_stamp"`
	ExtraFields map[string]any `json:"extra_fields,omitempty" db:"-"`
}

// NonDetection records an epoch where the survey observed the field but the
// object stayed below the limiting magnitude.
type NonDetection struct {
	OID        string  `json:"oid" db:"oid"`
	MJD        float64 `json:"mjd" db:"mjd"`
	FID        int     `json:"fid" db:"fid"`
	DiffMagLim float64 `json:"diffmaglim" db:"diffmaglim"`
}

// Lightcurve bundles both halves of an object's photometric history.
type Lightcurve struct {
	Detections    []Detection    `json:"detections"`
	NonDetections []NonDetection `json:"non_detections"`
}

// Classifier names a classifier and the taxonomy classes it emits.
type Classifier struct {
	ClassifierName string   `json:"classifier_name" db:"classifier_name"`
	Classes        []string `json:"classes" db:"classes"`
}

// Store holds external dependencies required by the API layer.
type Store struct {
	DB     *pgxpool.Pool
	Bus    *bus.Bus
	Stamps *gos3.Client
}
