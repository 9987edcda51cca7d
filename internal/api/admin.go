package api

import (
	"net/http"

	"github.com/samber/lo"

	"github.com/pagecraft/pagecraft/internal/database/queries"
)

// handleAdminStats returns platform-wide usage counters
func (s *Service) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := s.db.StatsPlatform(ctx)
	if err != nil {
		s.logger.Error("Failed to load platform stats", "error", err)
		http.Error(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// handleAdminListUsers lists all registered users
func (s *Service) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := s.db.UserList(ctx)
	if err != nil {
		s.logger.Error("Failed to list users", "error", err)
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}

	response := lo.Map(users, func(u *queries.User, _ int) *User {
		return userToResponse(u)
	})

	writeJSON(w, http.StatusOK, response)
}
