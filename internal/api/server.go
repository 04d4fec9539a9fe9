// Package api provides the Readly HTTP server: check-ins, stats,
// badges, points, the daily challenge, leaderboard, and notifications.
//
// The API trusts the X-User-ID header as the caller's identity; token
// issuance and verification belong to the auth layer in front of it.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/readly-app/readly/internal/app/gamify"
	"github.com/readly-app/readly/internal/app/points"
	"github.com/readly-app/readly/internal/domain"
	"github.com/readly-app/readly/internal/infra/sqlite"
)

// Server is the Readly HTTP API server.
type Server struct {
	db             *sqlite.DB
	aggregator     *gamify.Aggregator
	badges         *gamify.BadgeEngine
	challenge      *gamify.ChallengeEngine
	points         *points.Service
	metricsEnabled bool
}

// NewServer creates an API server over the engagement services.
func NewServer(db *sqlite.DB, agg *gamify.Aggregator, badges *gamify.BadgeEngine,
	challenge *gamify.ChallengeEngine, pts *points.Service) *Server {
	return &Server{
		db:         db,
		aggregator: agg,
		badges:     badges,
		challenge:  challenge,
		points:     pts,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", s.handleCreateUser)
		r.Get("/users", s.handleListUsers)
		r.Get("/users/{id}", s.handleGetUser)
		r.Post("/users/{id}/children/{childID}", s.handleLinkChild)

		r.Post("/checkins", s.handleCreateCheckIn)
		r.Get("/checkins", s.handleListCheckIns)
		r.Delete("/checkins/{id}", s.handleDeleteCheckIn)

		r.Get("/stats", s.handleStats)
		r.Get("/stats/summary", s.handleSummary)
		r.Get("/leaderboard", s.handleLeaderboard)

		r.Get("/badges", s.handleBadges)
		r.Get("/points", s.handlePoints)

		r.Get("/challenge", s.handleChallenge)
		r.Post("/challenge/claim", s.handleClaimChallenge)

		r.Get("/notifications", s.handleNotifications)
		r.Post("/notifications/{id}/read", s.handleMarkNotificationRead)
		r.Delete("/notifications/{id}", s.handleDeleteNotification)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// userID extracts the caller identity supplied by the auth layer.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeDomainError maps sentinel errors onto HTTP statuses so a caller
// always gets a "not allowed, here's why" rather than a bare 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrCheckInNotFound),
		errors.Is(err, domain.ErrNotificationNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyCheckedIn),
		errors.Is(err, domain.ErrChallengeClaimed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotCheckInOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidMinutes),
		errors.Is(err, domain.ErrMissingBook),
		errors.Is(err, domain.ErrCheckInInFuture),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrChallengeIncomplete):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
