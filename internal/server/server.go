// Package server provides HTTP server initialization and lifecycle management
// for the memory service.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/dpxrk/pactwise-memory/internal/config"
	"github.com/dpxrk/pactwise-memory/internal/engine"
	"github.com/dpxrk/pactwise-memory/internal/storage"
	"github.com/dpxrk/pactwise-memory/web/handlers"
)

// Services bundles the engine services and tier stores the HTTP surface
// exposes.
type Services struct {
	ShortTerm    *engine.ShortTermService
	LongTerm     *engine.LongTermService
	Consolidator *engine.Consolidator

	// Stores back the stats endpoint.
	ShortTermStore storage.ShortTermStore
	LongTermStore  storage.LongTermStore
}

// securityHeadersMiddleware adds security headers to all HTTP responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Start initializes and starts the HTTP server. It returns the actual address
// being listened on (useful for testing with port 0) and the WebSocketHub for
// wiring activity broadcasts. The server shuts down gracefully when ctx is
// cancelled.
func Start(ctx context.Context, cfg *config.Config, svc Services) (string, *handlers.WebSocketHub, error) {
	mux := http.NewServeMux()

	origin := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	wsHub := handlers.NewWebSocketHub(origin)
	go wsHub.Run()

	rateLimiter := handlers.NewRateLimiter(cfg.Security.RateLimitRPS, cfg.Security.RateLimitBurst)

	api := handlers.NewAPIHandlers(svc.ShortTerm, svc.LongTerm, svc.Consolidator, wsHub)
	statsHandler := handlers.NewStatsHandler(svc.ShortTermStore, svc.LongTermStore)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("/api/memories/short-term", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			api.StoreShortTerm(w, r)
		case http.MethodGet:
			api.GetRecentMemories(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/memories/short-term/session/{session_id}", requireGet(api.GetSessionMemories))
	apiMux.HandleFunc("/api/memories/short-term/search", requireGet(api.SearchShortTerm))
	apiMux.HandleFunc("/api/memories/short-term/consolidate", requirePost(api.MarkForConsolidation))

	apiMux.HandleFunc("/api/memories/long-term", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			api.StoreLongTerm(w, r)
		case http.MethodGet:
			api.GetLongTermMemories(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	apiMux.HandleFunc("/api/memories/long-term/search", requireGet(api.SearchLongTerm))
	apiMux.HandleFunc("/api/memories/long-term/{id}/reinforce", requirePost(api.ReinforceMemory))
	apiMux.HandleFunc("/api/memories/long-term/{id}/verify", requirePost(api.VerifyMemory))
	apiMux.HandleFunc("/api/memories/long-term/{id}/related", requireGet(api.GetRelatedMemories))

	apiMux.HandleFunc("/api/consolidation/run", requirePost(api.RunConsolidation))
	apiMux.HandleFunc("/api/stats", requireGet(statsHandler.GetStats))

	// Health endpoint — no auth required, used by monitoring.
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.Handle("/api/", handlers.RequireAuth(apiMux, cfg))

	// WebSocket endpoint — origin validation handles browser access.
	mux.Handle("/ws", wsHub)

	handler := handlers.RateLimitMiddleware(mux, rateLimiter)
	handler = securityHeadersMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		wsHub.Stop()
		return "", nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	actualAddr := listener.Addr().String()

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown error: %v", err)
		}
		wsHub.Stop()
	}()

	return actualAddr, wsHub, nil
}

func requireGet(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		fn(w, r)
	}
}

func requirePost(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		fn(w, r)
	}
}
