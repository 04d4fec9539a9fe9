package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/readly-app/readly/internal/domain"
)

// ─── Users ──────────────────────────────────────────────────────────────────

// handleCreateUser creates a user with its stats row.
// POST /api/users {"name": "...", "role": "child"}
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string      `json:"name"`
		Role domain.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	if !domain.ValidRole(req.Role) {
		writeDomainError(w, domain.ErrInvalidRole)
		return
	}

	u := domain.User{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Role:      req.Role,
		CreatedAt: time.Now(),
	}
	if err := s.db.CreateUser(u); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// handleListUsers returns all users.
// GET /api/users
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.db.ListUsers()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// handleGetUser returns one user.
// GET /api/users/{id}
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.db.GetUser(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// handleLinkChild links a parent/teacher to a child.
// POST /api/users/{id}/children/{childID}
func (s *Server) handleLinkChild(w http.ResponseWriter, r *http.Request) {
	parentID := chi.URLParam(r, "id")
	childID := chi.URLParam(r, "childID")

	parent, err := s.db.GetUser(parentID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	child, err := s.db.GetUser(childID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if parent.Role == domain.RoleChild || child.Role != domain.RoleChild {
		writeError(w, http.StatusUnprocessableEntity, "link must go from a parent or teacher to a child")
		return
	}

	if err := s.db.LinkChild(parentID, childID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, domain.Relationship{ParentID: parentID, ChildID: childID})
}

// ─── Check-ins ──────────────────────────────────────────────────────────────

// handleCreateCheckIn logs a reading session and runs the award
// pipeline. The response carries any badges or level-up earned.
// POST /api/checkins {"book_id": "...", "minutes": 25, "notes": "...", "day": "2026-08-29"}
func (s *Server) handleCreateCheckIn(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header required")
		return
	}

	var req struct {
		BookID  string `json:"book_id"`
		Minutes int    `json:"minutes"`
		Notes   string `json:"notes"`
		Day     string `json:"day"` // optional, defaults to today
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var day time.Time
	if req.Day != "" {
		var err error
		day, err = domain.ParseDay(req.Day)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "day must be YYYY-MM-DD")
			return
		}
	}

	checkin, result, err := s.aggregator.CheckIn(uid, req.BookID, day, req.Minutes, req.Notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"checkin": checkin,
		"result":  result,
	})
}

// handleListCheckIns returns the caller's check-ins.
// GET /api/checkins
func (s *Server) handleListCheckIns(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header required")
		return
	}
	limit := queryInt(r, "limit", 50)

	checkins, err := s.db.ListCheckIns(uid, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"checkins": checkins})
}

// handleDeleteCheckIn deletes an owned check-in and recomputes stats.
// Awards stay — no badge or point retraction.
// DELETE /api/checkins/{id}
func (s *Server) handleDeleteCheckIn(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header required")
		return
	}

	result, err := s.aggregator.DeleteCheckIn(uid, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"result": result})
}

// ─── Stats & Leaderboard ────────────────────────────────────────────────────

// handleStats returns the caller's cached aggregates.
// GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header required")
		return
	}
	stats, err := s.aggregator.Stats(uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleSummary compares this week/month against the previous one.
// GET /api/stats/summary?period=week|month
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header required")
		return
	}
	summary, err := s.aggregator.SummaryAt(uid, r.URL.Query().Get("period"), time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleLeaderboard returns child accounts ranked by points.
// GET /api/leaderboard?limit=N
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	board, err := s.db.Leaderboard(limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": board})
}

// ─── Badges & Points ────────────────────────────────────────────────────────

// handleBadges returns the catalog with the caller's earned status.
// GET /api/badges
func (s *Server) handleBadges(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header required")
		return
	}

	earned, err := s.badges.Earned(uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	earnedAt := make(map[string]time.Time, len(earned))
	for _, b := range earned {
		earnedAt[b.BadgeID] = b.EarnedAt
	}

	type badgeResponse struct {
		domain.Badge
		Earned   bool       `json:"earned"`
		EarnedAt *time.Time `json:"earned_at,omitempty"`
	}
	var out []badgeResponse
	for _, b := range s.badges.Definitions() {
		resp := badgeResponse{Badge: b}
		if at, ok := earnedAt[b.ID]; ok {
			resp.Earned = true
			resp.EarnedAt = &at
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"badges": out})
}

// handlePoints returns the caller's recent ledger entries and total.
// GET /api/points?limit=N
func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header required")
		return
	}
	limit := queryInt(r, "limit", 50)

	history, err := s.points.History(uid, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	total, err := s.points.Total(uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":  total,
		"points": history,
	})
}

// ─── Daily Challenge ────────────────────────────────────────────────────────

// handleChallenge returns today's challenge state.
// GET /api/challenge
func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header required")
		return
	}
	challenge, err := s.challenge.Today(uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, challenge)
}

// handleClaimChallenge claims today's reward (once).
// POST /api/challenge/claim
func (s *Server) handleClaimChallenge(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header required")
		return
	}
	if err := s.challenge.Claim(uid); err != nil {
		writeDomainError(w, err)
		return
	}
	challenge, err := s.challenge.Today(uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"claimed":   true,
		"challenge": challenge,
	})
}

// ─── Notifications ──────────────────────────────────────────────────────────

// handleNotifications lists the caller's notifications.
// GET /api/notifications?limit=N
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header required")
		return
	}
	limit := queryInt(r, "limit", 50)

	notifs, err := s.db.ListNotifications(uid, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifs})
}

// handleMarkNotificationRead marks one notification read.
// POST /api/notifications/{id}/read
func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header required")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := s.db.MarkNotificationRead(uid, id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"read": true})
}

// handleDeleteNotification deletes one notification.
// DELETE /api/notifications/{id}
func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header required")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := s.db.DeleteNotification(uid, id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// queryInt parses an integer query parameter with a fallback.
func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
