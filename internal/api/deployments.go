package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"

	"github.com/pagecraft/pagecraft/internal/database/queries"
)

type Deployment struct {
	ID           string `json:"id"`
	ProjectID    string `json:"project_id"`
	Status       string `json:"status"`
	SiteURL      string `json:"site_url,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	StartedAt    string `json:"started_at,omitempty"`
	CompletedAt  string `json:"completed_at,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func deploymentToResponse(d *queries.Deployment) Deployment {
	resp := Deployment{
		ID:           uuid.UUID(d.ID.Bytes).String(),
		ProjectID:    uuid.UUID(d.ProjectID.Bytes).String(),
		Status:       d.Status,
		SiteURL:      d.SiteURL,
		ErrorMessage: d.ErrorMessage,
		CreatedAt:    d.CreatedAt.Time.Format("2006-01-02T15:04:05Z"),
	}
	if d.StartedAt.Valid {
		resp.StartedAt = d.StartedAt.Time.Format("2006-01-02T15:04:05Z")
	}
	if d.CompletedAt.Valid {
		resp.CompletedAt = d.CompletedAt.Time.Format("2006-01-02T15:04:05Z")
	}
	return resp
}

// handleListDeployments lists deployments for a project, newest first
func (s *Service) handleListDeployments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := s.projectForUser(w, r)
	if !ok {
		return
	}

	deployments, err := s.db.DeploymentFindByProject(ctx, project.ID)
	if err != nil {
		s.logger.Error("Failed to list deployments", "error", err)
		http.Error(w, "Failed to list deployments", http.StatusInternalServerError)
		return
	}

	response := lo.Map(deployments, func(d *queries.Deployment, _ int) Deployment {
		return deploymentToResponse(d)
	})

	writeJSON(w, http.StatusOK, response)
}

// handleGetDeployment returns a single deployment, used by the editor to
// poll publish progress
func (s *Service) handleGetDeployment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	deploymentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid deployment ID", http.StatusBadRequest)
		return
	}

	deployment, err := s.db.DeploymentFindById(ctx, pgtype.UUID{Bytes: deploymentID, Valid: true})
	if err != nil {
		http.Error(w, "Deployment not found", http.StatusNotFound)
		return
	}

	project, err := s.db.ProjectFindById(ctx, deployment.ProjectID)
	if err != nil || project.UserID != userID {
		http.Error(w, "Not authorized to access this deployment", http.StatusForbidden)
		return
	}

	writeJSON(w, http.StatusOK, deploymentToResponse(deployment))
}
