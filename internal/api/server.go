// Package api provides the HTTP API server for GlassDesk.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/glassdesk/glassdesk/internal/auth"
	"github.com/glassdesk/glassdesk/internal/ingest"
	"github.com/glassdesk/glassdesk/internal/llm"
	"github.com/glassdesk/glassdesk/internal/query"
	"github.com/glassdesk/glassdesk/internal/scheduler"
	"github.com/glassdesk/glassdesk/internal/storage"
	"github.com/glassdesk/glassdesk/internal/summary"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	wsHub      *WebSocketHub

	users     *storage.UserStore
	records   *storage.RecordStore
	summaries *storage.SummaryStore

	sessions   *auth.SessionManager
	oauth      *auth.OAuthManager
	syncer     *ingest.Syncer
	aggregator *summary.Aggregator
	queries    *query.Service
	llmRouter  *llm.Router
	sched      *scheduler.Scheduler
}

// Config for the server
type Config struct {
	Host string
	Port int

	Users     *storage.UserStore
	Records   *storage.RecordStore
	Summaries *storage.SummaryStore

	Sessions   *auth.SessionManager
	OAuth      *auth.OAuthManager
	Syncer     *ingest.Syncer
	Aggregator *summary.Aggregator
	Queries    *query.Service
	LLMRouter  *llm.Router
	Scheduler  *scheduler.Scheduler
}

// New creates the API server
func New(cfg Config) *Server {
	s := &Server{
		users:      cfg.Users,
		records:    cfg.Records,
		summaries:  cfg.Summaries,
		sessions:   cfg.Sessions,
		oauth:      cfg.OAuth,
		syncer:     cfg.Syncer,
		aggregator: cfg.Aggregator,
		queries:    cfg.Queries,
		llmRouter:  cfg.LLMRouter,
		sched:      cfg.Scheduler,
		wsHub:      NewWebSocketHub(),
	}

	s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM calls ride on request handling
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRouter configures all routes
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		// Unauthenticated
		r.Post("/auth/login", s.handleLogin)
		r.Get("/auth/{provider}/callback", s.handleOAuthCallback)
		r.Get("/healthz", s.handleHealth)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(s.sessions.Middleware)

			r.Get("/auth/status", s.handleAuthStatus)
			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/{provider}/url", s.handleOAuthURL)
			r.Delete("/auth/{provider}", s.handleDisconnect)

			r.Get("/records", s.handleListRecords)
			r.Get("/records/{recordID}", s.handleGetRecord)

			r.Post("/sync", s.handleSyncAll)
			r.Post("/sync/{provider}", s.handleSyncProvider)

			r.Get("/summary/daily", s.handleDailySummary)
			r.Get("/insights", s.handleInsights)

			r.Post("/query", s.handleQuery)

			r.Get("/stats", s.handleStats)
		})
	})

	// WebSocket events
	r.Get("/ws", s.wsHub.ServeWS)

	s.router = r
}

// Router exposes the handler, used by tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the WebSocket hub and blocks serving HTTP
func (s *Server) Start() error {
	go s.wsHub.Run()
	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Broadcast pushes an event to all WebSocket clients
func (s *Server) Broadcast(msgType string, data any) {
	s.wsHub.Broadcast(WebSocketMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// --- Response helpers ---

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
