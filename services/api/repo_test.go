package api

import (
	"reflect"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestBuildObjectFilters(t *testing.T) {
	tests := []struct {
		name      string
		query     ObjectQuery
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "no filters",
			query:     ObjectQuery{},
			wantWhere: "",
			wantArgs:  nil,
		},
		{
			name: "classifier class and probability",
			query: ObjectQuery{
				Classifier:     "stamp_classifier",
				Class:          "AGN",
				MinProbability: floatPtr(0.5),
			},
			wantWhere: " WHERE c.classifier_name = $1 AND c.class_name = $2 AND c.probability >= $3",
			wantArgs:  []any{"stamp_classifier", "AGN", 0.5},
		},
		{
			name: "closed ndet range",
			query: ObjectQuery{
				NDet: &IntRange{Min: 2, Max: intPtr(50)},
			},
			wantWhere: " WHERE o.ndet >= $1 AND o.ndet <= $2",
			wantArgs:  []any{2, 50},
		},
		{
			name: "open mjd ranges",
			query: ObjectQuery{
				FirstMJD: &FloatRange{Min: 58000},
				LastMJD:  &FloatRange{Min: 58200},
			},
			wantWhere: " WHERE o.firstmjd >= $1 AND o.lastmjd >= $2",
			wantArgs:  []any{58000.0, 58200.0},
		},
		{
			name: "conesearch",
			query: ObjectQuery{
				Cone: &ConeSearch{RA: 10, Dec: -5, RadiusDeg: 0.01},
			},
			wantWhere: " WHERE q3c_radial_query(o.meanra, o.meandec, $1, $2, $3)",
			wantArgs:  []any{10.0, -5.0, 0.01},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := buildObjectFilters(tt.query)
			if got := f.where(); got != tt.wantWhere {
				t.Fatalf("where() = %q, want %q", got, tt.wantWhere)
			}
			if !reflect.DeepEqual(f.args, tt.wantArgs) {
				t.Fatalf("args = %#v, want %#v", f.args, tt.wantArgs)
			}
		})
	}
}

func TestNewObjectPage(t *testing.T) {
	q := ObjectQuery{Page: 2, PageSize: 10}
	total := int64(35)
	items := make([]ObjectListItem, 10)

	page := newObjectPage(q, items, &total, true)

	if page.Total == nil || *page.Total != 35 {
		t.Fatalf("Total = %v, want 35", page.Total)
	}
	if !page.HasNext || page.Next == nil || *page.Next != 3 {
		t.Fatalf("next = %v has_next=%v, want 3/true", page.Next, page.HasNext)
	}
	if !page.HasPrev || page.Prev == nil || *page.Prev != 1 {
		t.Fatalf("prev = %v has_prev=%v, want 1/true", page.Prev, page.HasPrev)
	}
}

func TestNewObjectPageFirstAndLast(t *testing.T) {
	page := newObjectPage(ObjectQuery{Page: 1, PageSize: 10}, nil, nil, false)

	if page.Total != nil {
		t.Fatalf("Total = %v, want nil when counting is disabled", page.Total)
	}
	if page.HasNext || page.Next != nil {
		t.Fatal("last page should not advertise a next page")
	}
	if page.HasPrev || page.Prev != nil {
		t.Fatal("first page should not advertise a previous page")
	}
}
