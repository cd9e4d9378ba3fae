package api

import "context"

// ObjectPage is one page of a filtered object listing. Total is nil when the
// client opted out of counting.
type ObjectPage struct {
	Total   *int64           `json:"total"`
	Page    int              `json:"page"`
	Next    *int             `json:"next"`
	HasNext bool             `json:"has_next"`
	Prev    *int             `json:"prev"`
	HasPrev bool             `json:"has_prev"`
	Items   []ObjectListItem `json:"items"`
}

func newObjectPage(q ObjectQuery, items []ObjectListItem, total *int64, hasNext bool) ObjectPage {
	page := ObjectPage{
		Total:   total,
		Page:    q.Page,
		HasNext: hasNext,
		HasPrev: q.Page > 1,
		Items:   items,
	}
	if page.HasNext {
		next := q.Page + 1
		page.Next = &next
	}
	if page.HasPrev {
		prev := q.Page - 1
		page.Prev = &prev
	}
	return page
}

// objectStore is the catalog access surface the handlers depend on. The
// production implementation is objectRepo; tests substitute fakes.
type objectStore interface {
	ListObjects(ctx context.Context, q ObjectQuery) (ObjectPage, error)
	GetObject(ctx context.Context, oid string) (ObjectDetail, error)
	ObjectExists(ctx context.Context, oid string) (bool, error)
	ListDetections(ctx context.Context, oid string) ([]Detection, error)
	ListNonDetections(ctx context.Context, oid string) ([]NonDetection, error)
	GetDetection(ctx context.Context, oid string, candid int64) (Detection, error)
	ListClassifiers(ctx context.Context) ([]Classifier, error)
	IngestAlerts(ctx context.Context, alerts []Alert) (IngestSummary, error)
}
