// Package api serves the game over HTTP.
//
// Players send actions to POST /api/v1/action or over the websocket at
// /api/v1/ws, identified by the X-User header or the user query parameter.
// Public GET endpoints expose only what any observer may see. The season
// clock, snapshots and the journal feed require the admin bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/dispatch"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/engine"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/gameerr"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/persistence"
	"github.com/SebaZ9/sz42-Jomini-sub006/internal/protocol"
)

const (
	maxRequestBytes = 64 << 10
	maxSpeed        = 1000
)

// Server serves the game over HTTP.
type Server struct {
	Game        *engine.Game
	Eng         *engine.Engine
	Dispatch    *dispatch.Dispatcher
	DB          *persistence.DB // Nil disables snapshots and the journal feed
	Port        int
	AdminKey    string       // Bearer token for admin endpoints. Empty = disabled.
	CORSOrigins []string     // Browser origins allowed besides localhost dev servers
	Limiter     *RateLimiter // Per-user action limit; nil = unlimited
}

// Handler builds the routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/fiefs", s.handleFiefs)
	mux.HandleFunc("/api/v1/schema", s.handleSchema)

	// Player endpoints.
	mux.HandleFunc("/api/v1/action", RateLimitMiddleware(s.Limiter, userOf, s.handleAction))
	mux.HandleFunc("/api/v1/ws", s.handleWebsocket)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/season", s.adminOnly(s.handleSeason))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))
	mux.HandleFunc("/api/v1/journal", s.handleJournal)

	return corsMiddleware(s.CORSOrigins, mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.AdminKey != "")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("HTTP API stopped")
	return nil
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range origins {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// originPatterns turns the CORS origins into websocket host patterns.
func originPatterns(origins []string) []string {
	out := []string{"localhost:*"}
	for _, o := range origins {
		if u, err := url.Parse(strings.TrimSpace(o)); err == nil && u.Host != "" {
			out = append(out, u.Host)
		}
	}
	return out
}

// userOf returns the login a request acts for.
func userOf(r *http.Request) string {
	if u := strings.TrimSpace(r.Header.Get("X-User")); u != "" {
		return u
	}
	return strings.TrimSpace(r.URL.Query().Get("user"))
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// requireAdmin writes the rejection and returns false unless the request
// carries the admin token.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if s.AdminKey == "" {
		http.Error(w, "admin endpoints disabled (no ADMIN_KEY set)", http.StatusForbidden)
		return false
	}
	if !s.checkBearerToken(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && !s.requireAdmin(w, r) {
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{}
	s.Game.Exclusive(func() {
		status["date"] = s.Game.Now().String()
		status["year"] = s.Game.Now().Year
		status["season"] = s.Game.Now().Season
		status["start_year"] = s.Game.StartYear()
		status["players"] = len(s.Game.Players())
		status["characters"] = len(s.Game.Characters())
		status["fiefs"] = len(s.Game.Fiefs())
		status["armies"] = len(s.Game.Armies())
		status["sieges"] = len(s.Game.Sieges())
		if winner := s.Game.Winner(); winner != "" {
			status["winner"] = winner
		}
	})
	if s.Eng != nil {
		status["speed"] = s.Eng.Speed()
		status["seasons_run"] = s.Eng.Seasons()
	}
	writeJSON(w, status)
}

// handleFiefs lists every fief as an outsider sees it.
func (s *Server) handleFiefs(w http.ResponseWriter, r *http.Request) {
	var out []protocol.FiefView
	s.Game.Exclusive(func() {
		for _, f := range s.Game.Fiefs() {
			out = append(out, protocol.NewFiefView(f, false))
		}
	})
	writeJSON(w, out)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	data, err := protocol.Schema()
	if err != nil {
		slog.Error("schema generation failed", "error", err)
		http.Error(w, "schema unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user := userOf(r)
	if user == "" {
		http.Error(w, "missing X-User", http.StatusUnauthorized)
		return
	}
	var req protocol.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.act(user, req))
}

// act runs one request. Responses to requests without a client token get a
// fresh one so that logs and clients can correlate them.
func (s *Server) act(user string, req protocol.Request) protocol.Response {
	resp := s.Dispatch.Handle(user, req)
	if resp.RequestID == "" {
		resp.RequestID = uuid.NewString()
	}
	slog.Debug("action handled", "user", user, "action", req.Action, "request", resp.RequestID, "result", resp.Result)
	return resp
}

// handleWebsocket keeps a connection open for a stream of actions. Each
// text message is one request and is answered with one response.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	user := userOf(r)
	if user == "" {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(s.CORSOrigins),
	})
	if err != nil {
		slog.Warn("websocket accept failed", "user", user, "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxRequestBytes)

	ctx := r.Context()
	session := uuid.NewString()
	slog.Info("websocket connected", "user", user, "session", session)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				slog.Info("websocket closed", "user", user, "session", session)
			default:
				slog.Debug("websocket read ended", "user", user, "session", session, "error", err)
			}
			return
		}
		if s.Limiter != nil {
			if err := s.Limiter.Wait(ctx, user); err != nil {
				return
			}
		}

		var req protocol.Request
		var resp protocol.Response
		if err := json.Unmarshal(data, &req); err != nil {
			resp = protocol.Fail(req, gameerr.Invalid("malformed request: %v", err))
		} else {
			resp = s.act(user, req)
		}
		if err := wsjson.Write(ctx, conn, resp); err != nil {
			slog.Debug("websocket write failed", "user", user, "session", session, "error", err)
			return
		}
	}
}

func (s *Server) handleSeason(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sum, err := s.Eng.Step()
	if err != nil {
		if gameerr.HasCode(err, gameerr.CodeGameOver) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		slog.Error("manual season failed", "error", err)
		http.Error(w, "season failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, protocol.NewSeasonView(sum))
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > maxSpeed {
			http.Error(w, "speed must be 0-"+strconv.Itoa(maxSpeed), http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	var err error
	date := ""
	s.Game.Exclusive(func() {
		date = s.Game.Now().String()
		err = s.DB.SaveWorldState(s.Game.Snapshot())
	})
	if err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"date":    date,
		"message": "snapshot saved",
	})
}

// handleJournal returns the newest saved journal entries. Entries can be
// private, so every method needs the admin token.
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			http.Error(w, "limit must be 1-500", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := s.DB.RecentEntries(limit)
	if err != nil {
		slog.Error("journal query failed", "error", err)
		http.Error(w, "journal unavailable", http.StatusInternalServerError)
		return
	}
	out := make([]protocol.JournalEntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, protocol.NewJournalEntryView(e))
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
