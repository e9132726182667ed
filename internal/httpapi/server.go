// Package httpapi serves the catalog as JSON over HTTP. Sessions are opaque
// tokens held in memory, sent back either as a cookie or a bearer header.
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"library/internal/catalog"
	"library/internal/library"
	"library/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "library_session"

// Core is the catalog as seen by the HTTP front end.
type Core interface {
	library.Core
	CreateBook(ctx context.Context, nb catalog.NewBook) (string, error)
}

// Server handles HTTP requests for the catalog
type Server struct {
	core     Core
	logger   *zap.Logger
	sessions map[string]models.Role
	mu       sync.RWMutex
}

// NewServer creates a new HTTP front end
func NewServer(core Core, logger *zap.Logger) *Server {
	return &Server{
		core:     core,
		logger:   logger,
		sessions: make(map[string]models.Role),
	}
}

// RegisterRoutes registers the API routes on the provided mux
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("GET /books", s.requireLogin(s.handleSearch))
	mux.HandleFunc("POST /books", s.requireAdmin(s.handleAddBook))
	mux.HandleFunc("DELETE /books/{id}", s.requireAdmin(s.handleRemoveBook))
	mux.HandleFunc("POST /books/{id}/borrow", s.requireMember(s.handleBorrow))
	mux.HandleFunc("GET /transactions", s.requireAdmin(s.handleTransactions))
}

// Handler returns the routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.LogRequests(mux)
}

type roleKey struct{}

func roleFrom(ctx context.Context) models.Role {
	role, _ := ctx.Value(roleKey{}).(models.Role)
	return role
}

func (s *Server) newSession(role models.Role) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = role
	s.mu.Unlock()
	return token
}

func (s *Server) endSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

func sessionToken(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// requireLogin resolves the session and puts its role in the request context
func (s *Server) requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		s.mu.RLock()
		role, ok := s.sessions[token]
		s.mu.RUnlock()

		if token == "" || !ok {
			s.logger.Debug("Rejected request without session",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), roleKey{}, role)))
	}
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireLogin(func(w http.ResponseWriter, r *http.Request) {
		if !models.IsAdmin(roleFrom(r.Context())) {
			http.Error(w, `{"error":"Admin access required"}`, http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

func (s *Server) requireMember(next http.HandlerFunc) http.HandlerFunc {
	return s.requireLogin(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := models.AsMember(roleFrom(r.Context())); !ok {
			http.Error(w, `{"error":"Only members can borrow books"}`, http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LogRequests logs method, path, status and duration of every request at debug level.
func (s *Server) LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to encode response", zap.Error(err))
	}
}
