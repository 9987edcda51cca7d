package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/pagecraft/pagecraft/internal/database/queries"
)

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

type UpdateUserRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

func userToResponse(u *queries.User) *User {
	return &User{
		ID:        uuid.UUID(u.ID.Bytes).String(),
		Name:      u.Name,
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.Time.Format("2006-01-02T15:04:05Z"),
	}
}

// handleGetCurrentUser returns the authenticated user's profile
func (s *Service) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	user, err := s.db.UserFindById(ctx, userID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, userToResponse(user))
}

// handleUpdateCurrentUser updates the authenticated user's profile
func (s *Service) handleUpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	user, err := s.db.UserFindById(ctx, userID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		req.Name = user.Name
	}
	if req.Username == "" {
		req.Username = user.Username
	}

	updated, err := s.db.UserUpdate(ctx, &queries.UserUpdateParams{
		ID:           user.ID,
		Name:         req.Name,
		Username:     req.Username,
		GithubUserID: user.GithubUserID,
	})
	if err != nil {
		s.logger.Error("Failed to update user", "error", err)
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, userToResponse(updated))
}
