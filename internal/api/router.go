package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parallaxhq/mindloom/internal/api/handlers"
	mw "github.com/parallaxhq/mindloom/internal/api/middleware"
	"github.com/parallaxhq/mindloom/internal/config"
	"github.com/parallaxhq/mindloom/internal/domain"
	"github.com/parallaxhq/mindloom/internal/llm"
	"github.com/parallaxhq/mindloom/internal/service"
	"github.com/parallaxhq/mindloom/internal/store"
	"go.uber.org/zap"
)

// App holds the router and request metrics for lifecycle management.
type App struct {
	Router       *chi.Mux
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	nodeStore := store.NewNodeStore(db)
	edgeStore := store.NewEdgeStore(db)
	historyStore := store.NewBeliefHistoryStore(db)
	contextStore := store.NewContextStore(db)

	// External clients via provider factory
	llmProvider := config.LLMProvider()
	llmClient, err := llm.NewClient(llmProvider, config.LLMAPIKey())
	if err != nil {
		logger.Warn("LLM client initialization failed", zap.String("provider", llmProvider), zap.Error(err))
	} else {
		logger.Info("LLM client initialized", zap.String("provider", llmProvider))
	}

	// Services
	memorySvc := service.NewMemoryService(nodeStore, edgeStore, historyStore, logger)
	hypothesisSvc := service.NewHypothesisService(nodeStore, edgeStore, logger)
	rendererSvc := service.NewRendererService(nodeStore, edgeStore, historyStore, contextStore, logger)

	if llmClient != nil {
		hypothesisSvc.SetLLMClient(llmClient)
	}

	// Handlers
	nodeHandler := handlers.NewNodeHandler(memorySvc)
	edgeHandler := handlers.NewEdgeHandler(memorySvc)
	beliefHandler := handlers.NewBeliefHandler(memorySvc)
	hypothesisHandler := handlers.NewHypothesisHandler(hypothesisSvc)
	viewHandler := handlers.NewMemoryViewHandler(rendererSvc, memorySvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
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

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.Auth(config.APIToken()))

		// Nodes
		r.Route("/nodes", func(r chi.Router) {
			r.Post("/", nodeHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", nodeHandler.GetByID)
				r.Get("/edges", nodeHandler.EdgesToNode)
				r.Get("/history", nodeHandler.History)
			})
		})

		// Edges
		r.Post("/edges", edgeHandler.Create)

		// Belief lifecycle
		r.Route("/beliefs/{id}", func(r chi.Router) {
			r.Put("/confidence", beliefHandler.UpdateConfidence)
			r.Put("/content", beliefHandler.UpdateContent)
			r.Post("/supersede", beliefHandler.Supersede)
			r.Post("/archive", beliefHandler.Archive)
			r.Get("/detail", viewHandler.BeliefDetail)
		})

		// Hypothesis lifecycle
		r.Route("/hypotheses/{id}", func(r chi.Router) {
			r.Post("/promote", hypothesisHandler.Promote)
			r.Post("/evidence", hypothesisHandler.UpdateEvidence)
		})

		// Project-scoped graph views
		r.Route("/projects/{projectID}", func(r chi.Router) {
			r.Get("/beliefs", nodeHandler.ListBeliefs)
			r.Get("/facts", nodeHandler.ListFacts)
			r.Get("/insights", nodeHandler.ListInsights)
			r.Get("/stats", nodeHandler.Stats)

			r.Get("/hypotheses/scan", hypothesisHandler.Scan)
			r.Get("/hypotheses/active", hypothesisHandler.Active)
			r.Post("/hypotheses/suggest-tests", hypothesisHandler.SuggestTests)

			r.Get("/memory", viewHandler.RenderMarkdown)
			r.Get("/memory/agent", viewHandler.AgentView)
			r.Get("/memory/summary", viewHandler.GraphSummary)
		})
	})

	return app
}

// NewRouter returns just the chi.Mux for callers that do not need the App.
func NewRouter(db *pgxpool.Pool, logger *zap.Logger) *chi.Mux {
	return NewApp(db, logger).Router
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
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
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.NodeStore          = (*store.NodeStore)(nil)
	_ domain.EdgeStore          = (*store.EdgeStore)(nil)
	_ domain.BeliefHistoryStore = (*store.BeliefHistoryStore)(nil)
	_ domain.ContextStore       = (*store.ContextStore)(nil)
	_ domain.LLMClient          = (*llm.OpenAIClient)(nil)
	_ domain.LLMClient          = (*llm.AnthropicClient)(nil)
	_ domain.LLMClient          = (*llm.MockClient)(nil)
)
