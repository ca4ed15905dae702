package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/atlaspsi/sentinel/internal/api/handlers"
	mw "github.com/atlaspsi/sentinel/internal/api/middleware"
	"github.com/atlaspsi/sentinel/internal/config"
	"github.com/atlaspsi/sentinel/internal/domain"
	"github.com/atlaspsi/sentinel/internal/engine"
	"github.com/atlaspsi/sentinel/internal/gateway"
	"github.com/atlaspsi/sentinel/internal/service"
	"github.com/atlaspsi/sentinel/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router   *chi.Mux
	Engine   *engine.Runtime
	Alerts   *service.AlertService
	Archiver *service.Archiver

	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// NewApp wires stores, services, and handlers onto a chi router. db may be
// nil, in which case the audit and archive surfaces report unavailable but
// classification runs normally — the engine never depends on storage.
func NewApp(db *pgxpool.Pool, engineCfg engine.Config, logger *zap.Logger) *App {
	rt := engine.NewRuntime(engineCfg, logger)

	gw := gateway.NewClient(config.GatewayURL(), config.GatewayLogPath(), logger)

	var alertStore *store.AlertStore
	var sessionStore *store.SessionStore
	if db != nil {
		alertStore = store.NewAlertStore(db)
		sessionStore = store.NewSessionStore(db)
	}

	alertSvc := service.NewAlertService(gw, storeOrNilAlerts(alertStore), logger)
	archiver := service.NewArchiver(rt, storeOrNilSessions(sessionStore), config.SessionIdleTTL(), logger)

	sessionHandler := handlers.NewSessionHandler(rt, alertSvc, archiver, storeOrNilSessions(sessionStore))

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Engine:    rt,
		Alerts:    alertSvc,
		Archiver:  archiver,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(config.APIKey()))

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Open)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessionHandler.Status)
				r.Delete("/", sessionHandler.Close)
				r.Post("/turns", sessionHandler.Evaluate)
				r.Get("/archive", sessionHandler.Archived)
				r.Get("/similar", sessionHandler.Similar)
			})
		})

		if alertStore != nil {
			alertHandler := handlers.NewAlertHandler(alertStore)
			r.Route("/alerts", func(r chi.Router) {
				r.Get("/", alertHandler.ListBySession)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", alertHandler.GetByID)
					r.Post("/review", alertHandler.Review)
					r.Post("/consent", alertHandler.Consent)
				})
			})
		}
	})

	return app
}

// A nil *store.T wrapped in an interface is not a nil interface; these
// keep the services' "no store configured" checks honest.
func storeOrNilAlerts(s *store.AlertStore) domain.AlertStore {
	if s == nil {
		return nil
	}
	return s
}

func storeOrNilSessions(s *store.SessionStore) domain.SessionStore {
	if s == nil {
		return nil
	}
	return s
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"open_sessions":  app.Engine.OpenCount(),
			"goroutines":     runtime.NumGoroutine(),
			"heap_bytes":     memStats.HeapAlloc,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}
