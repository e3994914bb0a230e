// Package api provides the HTTP API for joining and observing worlds.
// GET endpoints are public (read-only observation). The guardian-angel chat
// endpoint is rate limited per caller and pookie because every message
// triggers an interruption and a fresh LLM decision.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pookielabs/pookieverse/internal/chronicle"
	"github.com/pookielabs/pookieverse/internal/engine"
	"github.com/pookielabs/pookieverse/internal/oracle"
)

// MaxGuardianMessageLength caps guardian-angel chat messages.
const MaxGuardianMessageLength = oracle.MaxMessageLength

// Server serves the worlds over HTTP.
type Server struct {
	Registry  *Registry
	Chronicle *chronicle.Chronicle // optional; enables the events endpoint
	Port      int
}

// Handler builds the full route table. Exposed separately from Start so
// tests can drive it with httptest.
func (s *Server) Handler() http.Handler {
	chatLimiter := NewChatLimiter(10, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/health", s.handleHealth)
	mux.HandleFunc("/api/v1/worlds", s.handleWorlds)
	mux.HandleFunc("/api/v1/worlds/", s.handleWorldRoutes(chatLimiter))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "worlds", len(s.Registry.IDs()))

	handler := s.Handler()
	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins. Set
// CORS_ORIGINS to a comma-separated list of allowed origins; localhost dev
// servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"status": "ok", "worlds": s.Registry.IDs()})
}

func (s *Server) handleWorlds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"worlds": s.Registry.IDs()})
}

// handleWorldRoutes dispatches /api/v1/worlds/:id/... by hand:
//
//	GET  /worlds/:id                        state snapshot
//	POST /worlds/:id/join                   spawn a new pookie
//	GET  /worlds/:id/listen                 websocket state stream
//	GET  /worlds/:id/events                 recent chronicle events
//	GET  /worlds/:id/pookies/:name/offers   pending trade offers
//	POST /worlds/:id/pookies/:name/chat     guardian-angel message
func (s *Server) handleWorldRoutes(chatLimiter *ChatLimiter) http.HandlerFunc {
	rateLimitedChat := func(world *engine.World, pookie string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !chatLimiter.Allow(ip, pookie) {
				retry := int(chatLimiter.RetryAfter(ip, pookie).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			s.handleGuardianChat(w, r, world, pookie)
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimSuffix(r.URL.Path, "/"), "/")
		// /api/v1/worlds/:id → ["", "api", "v1", "worlds", id, ...]
		if len(parts) < 5 || parts[4] == "" {
			http.Error(w, "missing world id", http.StatusBadRequest)
			return
		}
		world := s.Registry.Get(parts[4])
		if world == nil {
			http.Error(w, "world not found", http.StatusNotFound)
			return
		}

		rest := parts[5:]
		switch {
		case len(rest) == 0:
			s.handleWorldState(w, r, world)
		case len(rest) == 1 && rest[0] == "join":
			s.handleJoin(w, r, world)
		case len(rest) == 1 && rest[0] == "listen":
			s.handleListen(w, r, world)
		case len(rest) == 1 && rest[0] == "events":
			s.handleWorldEvents(w, r, world)
		case len(rest) == 3 && rest[0] == "pookies" && rest[2] == "offers":
			s.handlePendingOffers(w, r, world, rest[1])
		case len(rest) == 3 && rest[0] == "pookies" && rest[2] == "chat":
			rateLimitedChat(world, rest[1])(w, r)
		default:
			http.NotFound(w, r)
		}
	}
}

func (s *Server) handleWorldState(w http.ResponseWriter, r *http.Request, world *engine.World) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, world.Snapshot())
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request, world *engine.World) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name, err := world.Join()
	if errors.Is(err, engine.ErrWorldFull) {
		http.Error(w, "world is full", http.StatusConflict)
		return
	}
	if err != nil {
		slog.Error("join failed", "world", world.ID(), "error", err)
		http.Error(w, "join failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"pookieName": name})
}

func (s *Server) handleWorldEvents(w http.ResponseWriter, r *http.Request, world *engine.World) {
	if s.Chronicle == nil {
		http.Error(w, "event log not available", http.StatusServiceUnavailable)
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	var events []engine.Event
	var err error
	if pookie := r.URL.Query().Get("pookie"); pookie != "" {
		events, err = s.Chronicle.PookieEvents(world.ID(), pookie, limit)
	} else {
		events, err = s.Chronicle.RecentEvents(world.ID(), limit)
	}
	if err != nil {
		slog.Error("event query failed", "world", world.ID(), "error", err)
		http.Error(w, "event query failed", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []engine.Event{}
	}
	writeJSON(w, events)
}

func (s *Server) handlePendingOffers(w http.ResponseWriter, r *http.Request, world *engine.World, pookie string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, world.PendingOffersFor(pookie))
}

func (s *Server) handleGuardianChat(w http.ResponseWriter, r *http.Request, world *engine.World, pookie string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		http.Error(w, "empty message", http.StatusBadRequest)
		return
	}
	req.Message = oracle.Truncate(req.Message, MaxGuardianMessageLength)

	err := world.SendGuardianAngelMessage(pookie, req.Message)
	if errors.Is(err, engine.ErrPookieNotFound) {
		http.Error(w, "pookie not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("guardian message failed", "world", world.ID(), "pookie", pookie, "error", err)
		http.Error(w, "guardian message failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "delivered"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encoding failed", "error", err)
	}
}
