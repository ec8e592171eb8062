// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"calorie-log/internal/oracle"
	"calorie-log/internal/platform/logger"
	"calorie-log/internal/storage"
	"calorie-log/internal/tracker"
)

type Config struct {
	Host     string
	Port     int
	DBPath   string
	Oracle   oracle.Config
	Location *time.Location
	// SlowRequest marks access log lines at warn level; 0 disables
	SlowRequest time.Duration
}

type CalorieLogServer struct {
	httpServer *http.Server
	storage    *storage.SQLiteStorage
	tracker    *tracker.Service
	config     *Config
}

func NewCalorieLogServer(cfg *Config) (*CalorieLogServer, error) {
	// Initialize database
	stor, err := storage.NewSQLiteStorage(cfg.DBPath, storage.WithLocation(cfg.Location))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	client := oracle.NewClient(cfg.Oracle)
	srv := &CalorieLogServer{
		storage: stor,
		tracker: tracker.New(client, client, stor),
		config:  cfg,
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv.httpServer = &http.Server{
		Addr:              addr,
		Handler:           NewRouter(srv.tracker, cfg.SlowRequest),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return srv, nil
}

// NewRouter mounts the JSON API and the MCP tool endpoint on a chi mux
func NewRouter(svc *tracker.Service, slow time.Duration) http.Handler {
	h := &handlers{svc: svc}
	tools := newToolbox(svc)

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimw.RealIP)
	r.Use(accessLog(slow))
	r.Use(recoverJSON)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, notFound(r))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/estimate", h.estimate)
		r.Post("/calorie-count", h.calorieCount)
		r.Post("/last-meal", h.lastMeal)
		r.Post("/chat", h.chat)
		r.Get("/history", h.history)
	})

	r.Post("/mcp", tools.handleHTTP)

	return r
}

func (s *CalorieLogServer) Start(ctx context.Context) error {
	logger.Named("http").Info().Str("addr", s.httpServer.Addr).Msg("http listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *CalorieLogServer) Stop(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	if s.storage != nil {
		if cerr := s.storage.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Named("http").Error().Err(err).Msg("failed to encode response")
	}
}
