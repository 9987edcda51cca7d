package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"

	"github.com/pagecraft/pagecraft/internal/database/queries"
	"github.com/pagecraft/pagecraft/internal/pages"
)

type Project struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Pages       json.RawMessage `json:"pages"`
	Published   bool            `json:"published"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	TemplateID  string `json:"template_id"`
}

type UpdateProjectRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Pages       json.RawMessage `json:"pages"`
}

func projectToResponse(p *queries.Project) Project {
	return Project{
		ID:          uuid.UUID(p.ID.Bytes).String(),
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Pages:       json.RawMessage(p.Pages),
		Published:   p.Published,
		CreatedAt:   p.CreatedAt.Time.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   p.UpdatedAt.Time.Format("2006-01-02T15:04:05Z"),
	}
}

// projectForUser loads the project from the path and checks ownership.
// On failure it writes the error response and returns false.
func (s *Service) projectForUser(w http.ResponseWriter, r *http.Request) (*queries.Project, bool) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	projectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid project ID", http.StatusBadRequest)
		return nil, false
	}

	project, err := s.db.ProjectFindById(ctx, pgtype.UUID{Bytes: projectID, Valid: true})
	if err != nil {
		http.Error(w, "Project not found", http.StatusNotFound)
		return nil, false
	}

	if project.UserID != userID {
		http.Error(w, "Not authorized to access this project", http.StatusForbidden)
		return nil, false
	}

	return project, true
}

// handleListProjects lists all projects for the authenticated user
func (s *Service) handleListProjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	projects, err := s.db.ProjectFindByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to get projects", "error", err, "userID", userID)
		http.Error(w, "Failed to get projects", http.StatusInternalServerError)
		return
	}

	response := lo.Map(projects, func(p *queries.Project, _ int) Project {
		return projectToResponse(p)
	})

	writeJSON(w, http.StatusOK, response)
}

// handleCreateProject creates a new project, optionally from a template
func (s *Service) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = slugify(req.Name)
	} else {
		slug = slugify(slug)
	}
	if slug == "" {
		http.Error(w, "name must contain at least one letter or digit", http.StatusBadRequest)
		return
	}

	pagesJSON, err := s.initialPages(r, req.TemplateID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	project, err := s.db.ProjectCreate(ctx, &queries.ProjectCreateParams{
		UserID:      userID,
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Pages:       pagesJSON,
	})
	if err != nil {
		if isUniqueViolation(err) {
			http.Error(w, "A project with this slug already exists", http.StatusConflict)
			return
		}
		s.logger.Error("Failed to create project", "error", err)
		http.Error(w, "Failed to create project", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, projectToResponse(project))
}

// handleCreateProjectFromTemplate creates a project pre-filled with a
// template's page document
func (s *Service) handleCreateProjectFromTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.TemplateID == "" {
		http.Error(w, "name and template_id are required", http.StatusBadRequest)
		return
	}

	slug := slugify(req.Slug)
	if slug == "" {
		slug = slugify(req.Name)
	}
	if slug == "" {
		http.Error(w, "name must contain at least one letter or digit", http.StatusBadRequest)
		return
	}

	pagesJSON, err := s.initialPages(r, req.TemplateID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	project, err := s.db.ProjectCreate(ctx, &queries.ProjectCreateParams{
		UserID:      userID,
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Pages:       pagesJSON,
	})
	if err != nil {
		if isUniqueViolation(err) {
			http.Error(w, "A project with this slug already exists", http.StatusConflict)
			return
		}
		s.logger.Error("Failed to create project", "error", err)
		http.Error(w, "Failed to create project", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, projectToResponse(project))
}

// initialPages returns the page document for a new project, copied from
// the template when one is given
func (s *Service) initialPages(r *http.Request, templateID string) ([]byte, error) {
	if templateID == "" {
		return pages.Starter(), nil
	}

	id, err := uuid.Parse(templateID)
	if err != nil {
		return nil, errors.New("invalid template ID")
	}

	template, err := s.db.TemplateFindById(r.Context(), pgtype.UUID{Bytes: id, Valid: true})
	if err != nil {
		return nil, errors.New("template not found")
	}

	return template.Pages, nil
}

// handleGetProject gets a specific project
func (s *Service) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, ok := s.projectForUser(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, projectToResponse(project))
}

// handleUpdateProject updates a project's metadata and page document
func (s *Service) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := s.projectForUser(w, r)
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	name := project.Name
	if req.Name != nil {
		if *req.Name == "" {
			http.Error(w, "name cannot be empty", http.StatusBadRequest)
			return
		}
		name = *req.Name
	}

	description := project.Description
	if req.Description != nil {
		description = *req.Description
	}

	pagesJSON := project.Pages
	if req.Pages != nil {
		doc, err := pages.Parse(req.Pages)
		if err != nil {
			http.Error(w, "Invalid page document: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := doc.Validate(); err != nil {
			http.Error(w, "Invalid page document: "+err.Error(), http.StatusBadRequest)
			return
		}
		pagesJSON = req.Pages
	}

	updated, err := s.db.ProjectUpdate(ctx, &queries.ProjectUpdateParams{
		ID:          project.ID,
		Name:        name,
		Slug:        project.Slug,
		Description: description,
		Pages:       pagesJSON,
	})
	if err != nil {
		s.logger.Error("Failed to update project", "error", err)
		http.Error(w, "Failed to update project", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, projectToResponse(updated))
}

// handleDeleteProject soft-deletes a project
func (s *Service) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := s.projectForUser(w, r)
	if !ok {
		return
	}

	if err := s.db.ProjectDelete(ctx, project.ID); err != nil {
		s.logger.Error("Failed to delete project", "error", err)
		http.Error(w, "Failed to delete project", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handlePublishProject snapshots the page document and queues a deployment
func (s *Service) handlePublishProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := s.projectForUser(w, r)
	if !ok {
		return
	}

	doc, err := pages.Parse(project.Pages)
	if err != nil {
		http.Error(w, "Project pages are invalid", http.StatusUnprocessableEntity)
		return
	}
	if err := doc.Validate(); err != nil {
		http.Error(w, "Project pages are invalid: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if len(doc) == 0 {
		http.Error(w, "Project has no pages to publish", http.StatusUnprocessableEntity)
		return
	}

	deployment, err := s.db.DeploymentCreate(ctx, &queries.DeploymentCreateParams{
		ProjectID:     project.ID,
		PagesSnapshot: project.Pages,
	})
	if err != nil {
		s.logger.Error("Failed to create deployment", "error", err)
		http.Error(w, "Failed to queue deployment", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, deploymentToResponse(deployment))
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify converts a name to a URL-safe slug
func slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint error
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
