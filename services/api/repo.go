package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"starcat/pkg/db"
)

// ErrNotFound marks lookups that matched nothing in the catalog.
var ErrNotFound = errors.New("not found")

const objectColumns = `o.oid, o.ndet, o.meanra, o.meandec, o.sigmara, o.sigmadec,
	o.firstmjd, o.lastmjd, o.deltajd, o.corrected, o.stellar, o.created_at, o.updated_at`

const detectionColumns = `candid, oid, mjd, fid, ra, dec, magpsf, sigmapsf,
	magpsf_corr, sigmapsf_corr, rb, isdiffpos, has_stamp, extra_fields`

// objectRepo implements objectStore against the Postgres catalog.
type objectRepo struct {
	pool *pgxpool.Pool
}

func newObjectRepo(pool *pgxpool.Pool) *objectRepo {
	return &objectRepo{pool: pool}
}

// filterBuilder accumulates WHERE conditions with positional placeholders.
type filterBuilder struct {
	conds []string
	args  []any
}

func (f *filterBuilder) add(format string, vals ...any) {
	placeholders := make([]any, len(vals))
	for i := range vals {
		f.args = append(f.args, vals[i])
		placeholders[i] = fmt.Sprintf("$%d", len(f.args))
	}
	f.conds = append(f.conds, fmt.Sprintf(format, placeholders...))
}

func (f *filterBuilder) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

func buildObjectFilters(q ObjectQuery) *filterBuilder {
	f := &filterBuilder{}

	if q.Classifier != "" {
		f.add("c.classifier_name = %s", q.Classifier)
	}
	if q.Class != "" {
		f.add("c.class_name = %s", q.Class)
	}
	if q.MinProbability != nil {
		f.add("c.probability >= %s", *q.MinProbability)
	}
	if q.NDet != nil {
		f.add("o.ndet >= %s", q.NDet.Min)
		if q.NDet.Max != nil {
			f.add("o.ndet <= %s", *q.NDet.Max)
		}
	}
	if q.FirstMJD != nil {
		f.add("o.firstmjd >= %s", q.FirstMJD.Min)
		if q.FirstMJD.Max != nil {
			f.add("o.firstmjd <= %s", *q.FirstMJD.Max)
		}
	}
	if q.LastMJD != nil {
		f.add("o.lastmjd >= %s", q.LastMJD.Min)
		if q.LastMJD.Max != nil {
			f.add("o.lastmjd <= %s", *q.LastMJD.Max)
		}
	}
	if q.Cone != nil {
		f.add("q3c_radial_query(o.meanra, o.meandec, %s, %s, %s)",
			q.Cone.RA, q.Cone.Dec, q.Cone.RadiusDeg)
	}

	return f
}

func (r *objectRepo) ListObjects(ctx context.Context, q ObjectQuery) (ObjectPage, error) {
	f := buildObjectFilters(q)
	from := ` FROM objects o LEFT JOIN classifications c ON c.oid = o.oid`

	order := q.OrderExpr()
	if q.OrderDesc {
		order += " DESC"
	}

	// One extra row decides has_next without a second round trip.
	query := fmt.Sprintf(
		`SELECT %s, c.classifier_name, c.class_name, c.probability%s%s ORDER BY %s NULLS LAST LIMIT %d OFFSET %d`,
		objectColumns, from, f.where(), order, q.PageSize+1, q.Offset(),
	)

	var items []ObjectListItem
	if err := db.Select(ctx, r.pool, &items, query, f.args...); err != nil {
		return ObjectPage{}, fmt.Errorf("list objects: %w", err)
	}

	hasNext := len(items) > q.PageSize
	if hasNext {
		items = items[:q.PageSize]
	}

	var total *int64
	if q.Count {
		var n int64
		countQuery := `SELECT count(*)` + from + f.where()
		if err := db.Get(ctx, r.pool, &n, countQuery, f.args...); err != nil {
			return ObjectPage{}, fmt.Errorf("count objects: %w", err)
		}
		total = &n
	}

	return newObjectPage(q, items, total, hasNext), nil
}

func (r *objectRepo) GetObject(ctx context.Context, oid string) (ObjectDetail, error) {
	var detail ObjectDetail
	query := fmt.Sprintf(`SELECT %s FROM objects o WHERE o.oid = $1`, objectColumns)
	if err := db.Get(ctx, r.pool, &detail.Object, query, oid); err != nil {
		if db.NotFound(err) {
			return ObjectDetail{}, fmt.Errorf("object %s: %w", oid, ErrNotFound)
		}
		return ObjectDetail{}, fmt.Errorf("get object: %w", err)
	}

	err := db.Select(ctx, r.pool, &detail.Classifications,
		`SELECT classifier_name, class_name, probability, ranking
		 FROM classifications WHERE oid = $1
		 ORDER BY classifier_name, probability DESC`, oid)
	if err != nil {
		return ObjectDetail{}, fmt.Errorf("get classifications: %w", err)
	}

	return detail, nil
}

func (r *objectRepo) ObjectExists(ctx context.Context, oid string) (bool, error) {
	var exists bool
	err := db.Get(ctx, r.pool, &exists,
		`SELECT EXISTS (SELECT 1 FROM objects WHERE oid = $1)`, oid)
	if err != nil {
		return false, fmt.Errorf("object exists: %w", err)
	}
	return exists, nil
}

// detectionRow carries the raw jsonb column alongside the API shape.
type detectionRow struct {
	Detection
	ExtraRaw []byte `db:"extra_fields"`
}

func (row detectionRow) toAPI() (Detection, error) {
	d := row.Detection
	if len(row.ExtraRaw) > 0 {
		if err := json.Unmarshal(row.ExtraRaw, &d.ExtraFields); err != nil {
			return Detection{}, fmt.Errorf("decode extra_fields for candid %d: %w", d.Candid, err)
		}
	}
	return d, nil
}

func (r *objectRepo) ListDetections(ctx context.Context, oid string) ([]Detection, error) {
	var rows []detectionRow
	query := fmt.Sprintf(`SELECT %s FROM detections WHERE oid = $1 ORDER BY mjd`, detectionColumns)
	if err := db.Select(ctx, r.pool, &rows, query, oid); err != nil {
		return nil, fmt.Errorf("list detections: %w", err)
	}

	out := make([]Detection, 0, len(rows))
	for _, row := range rows {
		d, err := row.toAPI()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *objectRepo) ListNonDetections(ctx context.Context, oid string) ([]NonDetection, error) {
	var out []NonDetection
	err := db.Select(ctx, r.pool, &out,
		`SELECT oid, mjd, fid, diffmaglim FROM non_detections WHERE oid = $1 ORDER BY mjd`, oid)
	if err != nil {
		return nil, fmt.Errorf("list non-detections: %w", err)
	}
	return out, nil
}

func (r *objectRepo) GetDetection(ctx context.Context, oid string, candid int64) (Detection, error) {
	var row detectionRow
	query := fmt.Sprintf(`SELECT %s FROM detections WHERE oid = $1 AND candid = $2`, detectionColumns)
	if err := db.Get(ctx, r.pool, &row, query, oid, candid); err != nil {
		if db.NotFound(err) {
			return Detection{}, fmt.Errorf("detection %d of %s: %w", candid, oid, ErrNotFound)
		}
		return Detection{}, fmt.Errorf("get detection: %w", err)
	}
	return row.toAPI()
}

func (r *objectRepo) ListClassifiers(ctx context.Context) ([]Classifier, error) {
	var out []Classifier
	err := db.Select(ctx, r.pool, &out,
		`SELECT classifier_name, array_agg(DISTINCT class_name) AS classes
		 FROM classifications GROUP BY classifier_name ORDER BY classifier_name`)
	if err != nil {
		return nil, fmt.Errorf("list classifiers: %w", err)
	}
	return out, nil
}

func (r *objectRepo) IngestAlerts(ctx context.Context, alerts []Alert) (IngestSummary, error) {
	summary := IngestSummary{Objects: map[string]int{}}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return summary, fmt.Errorf("begin ingest: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	touched := make(map[string]struct{})

	for _, alert := range alerts {
		if _, seen := touched[alert.OID]; !seen {
			// Seed the object row so detection FKs resolve; aggregates
			// are refreshed after the batch lands.
			_, err := tx.Exec(ctx,
				`INSERT INTO objects (oid, ndet, meanra, meandec, firstmjd, lastmjd, created_at, updated_at)
				 VALUES ($1, 0, $2, $3, $4, $4, now(), now())
				 ON CONFLICT (oid) DO NOTHING`,
				alert.OID, alert.RA, alert.Dec, alert.MJD)
			if err != nil {
				return summary, fmt.Errorf("seed object %s: %w", alert.OID, err)
			}
			touched[alert.OID] = struct{}{}
		}

		var extra []byte
		if len(alert.ExtraFields) > 0 {
			if extra, err = json.Marshal(alert.ExtraFields); err != nil {
				return summary, fmt.Errorf("encode extra_fields for candid %d: %w", alert.Candid, err)
			}
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO detections
			   (candid, oid, mjd, fid, ra, dec, magpsf, sigmapsf, magpsf_corr, sigmapsf_corr,
			    rb, isdiffpos, has_stamp, extra_fields)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			 ON CONFLICT (candid) DO UPDATE SET
			   magpsf = EXCLUDED.magpsf,
			   sigmapsf = EXCLUDED.sigmapsf,
			   magpsf_corr = EXCLUDED.magpsf_corr,
			   sigmapsf_corr = EXCLUDED.sigmapsf_corr,
			   rb = EXCLUDED.rb,
			   has_stamp = EXCLUDED.has_stamp,
			   extra_fields = EXCLUDED.extra_fields`,
			alert.Candid, alert.OID, alert.MJD, alert.FID, alert.RA, alert.Dec,
			alert.MagPSF, alert.SigmaPSF, alert.MagPSFCorr, alert.SigmaCorr,
			alert.RB, alert.IsDiffPos, alert.HasStamp, extra)
		if err != nil {
			return summary, fmt.Errorf("store detection %d: %w", alert.Candid, err)
		}
		summary.Alerts++
		summary.Objects[alert.OID]++

		for _, nd := range alert.NonDetections {
			tag, err := tx.Exec(ctx,
				`INSERT INTO non_detections (id, oid, fid, mjd, diffmaglim)
				 VALUES ($1, $2, $3, $4, $5)
				 ON CONFLICT (oid, fid, mjd) DO NOTHING`,
				uuid.New(), alert.OID, nd.FID, nd.MJD, nd.DiffMagLim)
			if err != nil {
				return summary, fmt.Errorf("store non-detection for %s: %w", alert.OID, err)
			}
			summary.NonDetections += int(tag.RowsAffected())
		}
	}

	for oid := range touched {
		_, err := tx.Exec(ctx,
			`UPDATE objects o SET
			   ndet = s.ndet,
			   meanra = s.meanra,
			   meandec = s.meandec,
			   sigmara = s.sigmara,
			   sigmadec = s.sigmadec,
			   firstmjd = s.firstmjd,
			   lastmjd = s.lastmjd,
			   deltajd = s.lastmjd - s.firstmjd,
			   corrected = s.corrected,
			   updated_at = now()
			 FROM (
			   SELECT count(*) AS ndet,
			          avg(ra) AS meanra,
			          avg(dec) AS meandec,
			          coalesce(stddev_pop(ra), 0) AS sigmara,
			          coalesce(stddev_pop(dec), 0) AS sigmadec,
			          min(mjd) AS firstmjd,
			          max(mjd) AS lastmjd,
			          bool_and(magpsf_corr IS NOT NULL) AS corrected
			   FROM detections WHERE oid = $1
			 ) s
			 WHERE o.oid = $1`, oid)
		if err != nil {
			return summary, fmt.Errorf("refresh object %s: %w", oid, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return summary, fmt.Errorf("commit ingest: %w", err)
	}
	return summary, nil
}
