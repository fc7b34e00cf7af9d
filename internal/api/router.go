// Package api exposes the analyses over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-risk/internal/analysis"
	"github.com/sells-group/parcel-risk/internal/model"
	"github.com/sells-group/parcel-risk/internal/store"
)

// Analyses runs scored analyses. *analysis.Service implements it.
type Analyses interface {
	Risk(ctx context.Context, address string) (model.RiskScoreResult, error)
	RiskByParcel(ctx context.Context, parcelID string) (model.RiskScoreResult, error)
	Price(ctx context.Context, req analysis.PriceRequest) (model.PriceScoreResult, error)
	Report(ctx context.Context, req analysis.PriceRequest) (analysis.Report, error)
}

// History reads persisted analyses. store.Store implements it.
type History interface {
	ListRisk(ctx context.Context, filter store.ListFilter) ([]model.RiskHistory, error)
	ListPrice(ctx context.Context, filter store.ListFilter) ([]model.PriceHistory, error)
	Ping(ctx context.Context) error
}

// Options configures the router.
type Options struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// NewRouter builds the HTTP handler.
func NewRouter(svc Analyses, history History, opts Options) http.Handler {
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	h := &handler{svc: svc, history: history}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(chimw.Timeout(opts.RequestTimeout))
		v1.Post("/risk", h.risk)
		v1.Post("/risk/parcel", h.riskByParcel)
		v1.Post("/price", h.price)
		v1.Post("/report", h.report)
		v1.Get("/history/risk", h.riskHistory)
		v1.Get("/history/price", h.priceHistory)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}
