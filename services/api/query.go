package api

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultPageSize = 10
	defaultOrderKey = "oid"
)

// sortable maps order_by keys to the SQL expressions they sort on. Anything
// not listed here is rejected instead of being probed against the models.
var sortable = map[string]string{
	"oid":         "o.oid",
	"ndet":        "o.ndet",
	"firstmjd":    "o.firstmjd",
	"lastmjd":     "o.lastmjd",
	"meanra":      "o.meanra",
	"meandec":     "o.meandec",
	"deltajd":     "o.deltajd",
	"probability": "c.probability",
}

// FloatRange filters a column to [Min, Max]; a nil Max leaves the range
// open above.
type FloatRange struct {
	Min float64
	Max *float64
}

// IntRange is FloatRange for integer columns.
type IntRange struct {
	Min int
	Max *int
}

// ConeSearch restricts objects to a spherical cap. Radius is stored in
// degrees; the wire format takes arcseconds.
type ConeSearch struct {
	RA        float64
	Dec       float64
	RadiusDeg float64
}

// ObjectQuery is the parsed and validated form of the list endpoint's query
// string.
type ObjectQuery struct {
	Classifier     string
	Class          string
	MinProbability *float64
	NDet           *IntRange
	FirstMJD       *FloatRange
	LastMJD        *FloatRange
	Cone           *ConeSearch

	OrderBy   string
	OrderDesc bool

	Page     int
	PageSize int
	Count    bool
}

// OrderExpr returns the SQL expression the query sorts on.
func (q ObjectQuery) OrderExpr() string {
	return sortable[q.OrderBy]
}

// Offset returns the row offset of the requested page.
func (q ObjectQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// ParseObjectQuery validates the query string of the list endpoint.
// maxPageSize caps page_size; values above it are a client error.
func ParseObjectQuery(values url.Values, maxPageSize int) (ObjectQuery, error) {
	q := ObjectQuery{
		Classifier: strings.TrimSpace(values.Get("classifier")),
		Class:      strings.TrimSpace(values.Get("class")),
		OrderBy:    defaultOrderKey,
		Page:       1,
		PageSize:   defaultPageSize,
		Count:      true,
	}

	if raw := values.Get("probability"); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, fmt.Errorf("invalid probability %q", raw)
		}
		q.MinProbability = &p
	}

	ndet, err := parseIntRange(values, "ndet")
	if err != nil {
		return q, err
	}
	q.NDet = ndet

	for key, dest := range map[string]**FloatRange{
		"firstmjd": &q.FirstMJD,
		"lastmjd":  &q.LastMJD,
	} {
		r, err := parseFloatRange(values, key)
		if err != nil {
			return q, err
		}
		*dest = r
	}

	cone, err := parseConeSearch(values)
	if err != nil {
		return q, err
	}
	q.Cone = cone

	if raw := values.Get("order_by"); raw != "" {
		key := strings.ToLower(strings.TrimSpace(raw))
		if _, ok := sortable[key]; !ok {
			return q, fmt.Errorf("unknown order_by %q", raw)
		}
		q.OrderBy = key
	}
	switch mode := strings.ToUpper(strings.TrimSpace(values.Get("order_mode"))); mode {
	case "", "ASC":
	case "DESC":
		q.OrderDesc = true
	default:
		return q, fmt.Errorf("order_mode must be ASC or DESC, got %q", values.Get("order_mode"))
	}

	if raw := values.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return q, fmt.Errorf("invalid page %q", raw)
		}
		q.Page = page
	}
	if raw := values.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return q, fmt.Errorf("invalid page_size %q", raw)
		}
		if maxPageSize > 0 && size > maxPageSize {
			return q, fmt.Errorf("page_size %d exceeds maximum %d", size, maxPageSize)
		}
		q.PageSize = size
	}
	if raw := values.Get("count"); raw != "" {
		count, err := strconv.ParseBool(raw)
		if err != nil {
			return q, fmt.Errorf("invalid count %q", raw)
		}
		q.Count = count
	}

	return q, nil
}

// multiValues collects repeated or comma-separated occurrences of key.
func multiValues(values url.Values, key string) []string {
	var out []string
	for _, raw := range values[key] {
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func parseFloatRange(values url.Values, key string) (*FloatRange, error) {
	parts := multiValues(values, key)
	if len(parts) == 0 {
		return nil, nil
	}
	if len(parts) > 2 {
		return nil, fmt.Errorf("%s accepts at most two values (min, max)", key)
	}

	min, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, parts[0])
	}
	r := &FloatRange{Min: min}

	if len(parts) == 2 {
		max, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", key, parts[1])
		}
		if max < min {
			return nil, fmt.Errorf("%s maximum %v is below minimum %v", key, max, min)
		}
		r.Max = &max
	}
	return r, nil
}

func parseIntRange(values url.Values, key string) (*IntRange, error) {
	parts := multiValues(values, key)
	if len(parts) == 0 {
		return nil, nil
	}
	if len(parts) > 2 {
		return nil, fmt.Errorf("%s accepts at most two values (min, max)", key)
	}

	min, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, parts[0])
	}
	r := &IntRange{Min: min}

	if len(parts) == 2 {
		max, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", key, parts[1])
		}
		if max < min {
			return nil, fmt.Errorf("%s maximum %d is below minimum %d", key, max, min)
		}
		r.Max = &max
	}
	return r, nil
}

// parseConeSearch requires ra, dec, and radius together. The original API
// silently dropped incomplete triples; that hid client typos, so an
// incomplete conesearch is now an error.
func parseConeSearch(values url.Values) (*ConeSearch, error) {
	raRaw, decRaw, radiusRaw := values.Get("ra"), values.Get("dec"), values.Get("radius")
	if raRaw == "" && decRaw == "" && radiusRaw == "" {
		return nil, nil
	}
	if raRaw == "" || decRaw == "" || radiusRaw == "" {
		return nil, errors.New("conesearch requires ra, dec and radius together")
	}

	ra, err := strconv.ParseFloat(raRaw, 64)
	if err != nil || ra < 0 || ra >= 360 {
		return nil, fmt.Errorf("invalid ra %q, want degrees in [0, 360)", raRaw)
	}
	dec, err := strconv.ParseFloat(decRaw, 64)
	if err != nil || dec < -90 || dec > 90 {
		return nil, fmt.Errorf("invalid dec %q, want degrees in [-90, 90]", decRaw)
	}
	radius, err := strconv.ParseFloat(radiusRaw, 64)
	if err != nil || radius <= 0 {
		return nil, fmt.Errorf("invalid radius %q, want arcseconds > 0", radiusRaw)
	}

	return &ConeSearch{RA: ra, Dec: dec, RadiusDeg: arcsecToDeg(radius)}, nil
}

func arcsecToDeg(arcsec float64) float64 {
	return arcsec / 3600
}
