package api

import (
	"math"
	"net/url"
	"testing"
)

func TestParseObjectQueryDefaults(t *testing.T) {
	q, err := ParseObjectQuery(url.Values{}, 500)
	if err != nil {
		t.Fatalf("ParseObjectQuery() error = %v", err)
	}

	if q.Page != 1 || q.PageSize != defaultPageSize {
		t.Fatalf("pagination defaults = %d/%d, want 1/%d", q.Page, q.PageSize, defaultPageSize)
	}
	if !q.Count {
		t.Fatal("count should default to true")
	}
	if q.OrderBy != defaultOrderKey || q.OrderDesc {
		t.Fatalf("order defaults = %q desc=%v, want %q asc", q.OrderBy, q.OrderDesc, defaultOrderKey)
	}
	if q.Cone != nil || q.NDet != nil || q.FirstMJD != nil || q.LastMJD != nil || q.MinProbability != nil {
		t.Fatal("no filters should be set by default")
	}
}

func TestParseObjectQueryFilters(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
		check   func(t *testing.T, q ObjectQuery)
	}{
		{
			name:  "classifier and class",
			query: "classifier=lc_classifier&class=SNIa&probability=0.7",
			check: func(t *testing.T, q ObjectQuery) {
				if q.Classifier != "lc_classifier" || q.Class != "SNIa" {
					t.Fatalf("classifier/class = %q/%q", q.Classifier, q.Class)
				}
				if q.MinProbability == nil || *q.MinProbability != 0.7 {
					t.Fatalf("probability = %v, want 0.7", q.MinProbability)
				}
			},
		},
		{
			name:  "ndet range repeated params",
			query: "ndet=5&ndet=20",
			check: func(t *testing.T, q ObjectQuery) {
				if q.NDet == nil || q.NDet.Min != 5 || q.NDet.Max == nil || *q.NDet.Max != 20 {
					t.Fatalf("ndet = %+v, want [5, 20]", q.NDet)
				}
			},
		},
		{
			name:  "ndet open range comma form",
			query: "ndet=3",
			check: func(t *testing.T, q ObjectQuery) {
				if q.NDet == nil || q.NDet.Min != 3 || q.NDet.Max != nil {
					t.Fatalf("ndet = %+v, want open range from 3", q.NDet)
				}
			},
		},
		{
			name:  "firstmjd comma separated",
			query: "firstmjd=58000.5,58100",
			check: func(t *testing.T, q ObjectQuery) {
				if q.FirstMJD == nil || q.FirstMJD.Min != 58000.5 {
					t.Fatalf("firstmjd = %+v", q.FirstMJD)
				}
				if q.FirstMJD.Max == nil || *q.FirstMJD.Max != 58100 {
					t.Fatalf("firstmjd max = %v, want 58100", q.FirstMJD.Max)
				}
			},
		},
		{
			name:    "inverted range",
			query:   "lastmjd=58100&lastmjd=58000",
			wantErr: true,
		},
		{
			name:    "too many range values",
			query:   "ndet=1&ndet=2&ndet=3",
			wantErr: true,
		},
		{
			name:    "unknown order_by",
			query:   "order_by=magpsf",
			wantErr: true,
		},
		{
			name:  "order desc",
			query: "order_by=probability&order_mode=desc",
			check: func(t *testing.T, q ObjectQuery) {
				if q.OrderBy != "probability" || !q.OrderDesc {
					t.Fatalf("order = %q desc=%v", q.OrderBy, q.OrderDesc)
				}
				if q.OrderExpr() != "c.probability" {
					t.Fatalf("OrderExpr() = %q", q.OrderExpr())
				}
			},
		},
		{
			name:    "bad order_mode",
			query:   "order_mode=SIDEWAYS",
			wantErr: true,
		},
		{
			name:    "page below one",
			query:   "page=0",
			wantErr: true,
		},
		{
			name:    "page_size above cap",
			query:   "page_size=501",
			wantErr: true,
		},
		{
			name:  "count disabled",
			query: "count=false",
			check: func(t *testing.T, q ObjectQuery) {
				if q.Count {
					t.Fatal("count should be false")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("bad test query: %v", err)
			}

			q, err := ParseObjectQuery(values, 500)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseObjectQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.check != nil {
				tt.check(t, q)
			}
		})
	}
}

func TestParseConeSearch(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    *ConeSearch
		wantErr bool
	}{
		{
			name:  "absent",
			query: "",
			want:  nil,
		},
		{
			name:  "radius converted from arcsec",
			query: "ra=120.5&dec=-33.2&radius=30",
			want:  &ConeSearch{RA: 120.5, Dec: -33.2, RadiusDeg: 30.0 / 3600},
		},
		{
			name:    "incomplete triple",
			query:   "ra=120.5&dec=-33.2",
			wantErr: true,
		},
		{
			name:    "ra out of range",
			query:   "ra=360&dec=0&radius=10",
			wantErr: true,
		},
		{
			name:    "dec out of range",
			query:   "ra=0&dec=91&radius=10",
			wantErr: true,
		},
		{
			name:    "non-positive radius",
			query:   "ra=0&dec=0&radius=0",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("bad test query: %v", err)
			}

			got, err := parseConeSearch(values)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseConeSearch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("parseConeSearch() = %+v, want %+v", got, tt.want)
			}
			if got == nil {
				return
			}
			if got.RA != tt.want.RA || got.Dec != tt.want.Dec ||
				math.Abs(got.RadiusDeg-tt.want.RadiusDeg) > 1e-12 {
				t.Fatalf("parseConeSearch() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestObjectQueryOffset(t *testing.T) {
	q := ObjectQuery{Page: 3, PageSize: 25}
	if got := q.Offset(); got != 50 {
		t.Fatalf("Offset() = %d, want 50", got)
	}
}
