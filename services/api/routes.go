package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"starcat/pkg/render"
)

const (
	defaultRequestTimeout = 360 * time.Second
	stampURLExpiry        = 15 * time.Minute

	alertsIngestedSubject = "starcat.alerts.ingested"
)

// Config controls runtime behaviour for the API handlers.
type Config struct {
	RequestTimeout time.Duration
	PageSizeMax    int
	RatePerMinute  int
	AllowedOrigins []string
	StampBucket    string
}

// publisher is the slice of pkg/bus the handlers need.
type publisher interface {
	Publish(ctx context.Context, subj string, v any) error
}

// stampSigner is the slice of pkg/s3 the stamp handler needs.
type stampSigner interface {
	PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// API wires the catalog store, event publisher, stamp signer, and renderer
// behind the HTTP handlers.
type API struct {
	store    objectStore
	ready    func(context.Context) error
	events   publisher
	stamps   stampSigner
	renderer *render.Engine
	config   Config
	logger   zerolog.Logger
}

// New initialises the API layer with sane defaults applied to the provided
// configuration. Bus and stamp store are optional; their endpoints degrade
// gracefully when absent.
func New(store *Store, renderer *render.Engine, cfg Config, logger zerolog.Logger) (*API, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if store.DB == nil {
		return nil, errors.New("store DB is required")
	}
	if renderer == nil {
		return nil, errors.New("renderer is required")
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	a := &API{
		store:    newObjectRepo(store.DB),
		ready:    store.DB.Ping,
		renderer: renderer,
		config:   cfg,
		logger:   logger,
	}
	if store.Bus != nil {
		a.events = store.Bus
	}
	if store.Stamps != nil {
		a.stamps = store.Stamps
	}
	return a, nil
}

// Routes constructs the chi router containing all API endpoints.
func (a *API) Routes() (http.Handler, error) {
	if a == nil {
		return nil, errors.New("nil api")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(a.config.RequestTimeout))
	r.Use(instrument)

	if len(a.config.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: a.config.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         int((10 * time.Minute).Seconds()),
		}))
	}
	if a.config.RatePerMinute > 0 {
		r.Use(httprate.Limit(a.config.RatePerMinute, time.Minute))
	}

	r.Get("/", a.handleIndex)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", a.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/objects", func(r chi.Router) {
		r.Get("/", a.handleListObjects)
		r.Route("/{oid}", func(r chi.Router) {
			r.Get("/", a.handleGetObject)
			r.Get("/lightcurve", a.handleLightcurve)
			r.Get("/detections", a.handleDetections)
			r.Get("/non_detections", a.handleNonDetections)
			r.Get("/stamps", a.handleStamps)
		})
	})
	r.Get("/classifiers", a.handleClassifiers)
	r.Post("/alerts", a.handleIngestAlerts)

	return r, nil
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.ready(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, errors.New("database unreachable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (a *API) handleIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := a.renderer.Render("index.html.tmpl", map[string]any{"Service": "starcat"})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (a *API) publishJSON(ctx context.Context, subject string, payload map[string]any) {
	if a.events == nil || subject == "" {
		return
	}
	if err := a.events.Publish(ctx, subject, payload); err != nil {
		a.logger.Warn().Err(err).Str("subject", subject).Msg("publish event")
	}
}
