package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"

	"github.com/pagecraft/pagecraft/internal/database/queries"
	"github.com/pagecraft/pagecraft/internal/pages"
)

type Template struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Pages       json.RawMessage `json:"pages"`
	PreviewURL  string          `json:"preview_url"`
	CreatedAt   string          `json:"created_at"`
}

type TemplateRequest struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Pages       json.RawMessage `json:"pages"`
	PreviewURL  string          `json:"preview_url"`
}

func templateToResponse(t *queries.Template) Template {
	return Template{
		ID:          uuid.UUID(t.ID.Bytes).String(),
		Name:        t.Name,
		Category:    t.Category,
		Description: t.Description,
		Pages:       json.RawMessage(t.Pages),
		PreviewURL:  t.PreviewURL,
		CreatedAt:   t.CreatedAt.Time.Format("2006-01-02T15:04:05Z"),
	}
}

// handleListTemplates lists templates, optionally filtered by category
func (s *Service) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	templates, err := s.db.TemplateList(ctx, r.URL.Query().Get("category"))
	if err != nil {
		s.logger.Error("Failed to list templates", "error", err)
		http.Error(w, "Failed to list templates", http.StatusInternalServerError)
		return
	}

	response := lo.Map(templates, func(t *queries.Template, _ int) Template {
		return templateToResponse(t)
	})

	writeJSON(w, http.StatusOK, response)
}

// handleGetTemplate gets a specific template
func (s *Service) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	templateID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid template ID", http.StatusBadRequest)
		return
	}

	template, err := s.db.TemplateFindById(ctx, pgtype.UUID{Bytes: templateID, Valid: true})
	if err != nil {
		http.Error(w, "Template not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, templateToResponse(template))
}

// validateTemplateRequest checks required fields and the page document
func validateTemplateRequest(req *TemplateRequest) (string, bool) {
	if req.Name == "" || req.Category == "" {
		return "name and category are required", false
	}
	if len(req.Pages) == 0 {
		return "pages are required", false
	}
	doc, err := pages.Parse(req.Pages)
	if err != nil {
		return "Invalid page document: " + err.Error(), false
	}
	if err := doc.Validate(); err != nil {
		return "Invalid page document: " + err.Error(), false
	}
	return "", true
}

// handleCreateTemplate creates a template (admin only)
func (s *Service) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req TemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if msg, ok := validateTemplateRequest(&req); !ok {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	template, err := s.db.TemplateCreate(ctx, &queries.TemplateCreateParams{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Pages:       req.Pages,
		PreviewURL:  req.PreviewURL,
	})
	if err != nil {
		s.logger.Error("Failed to create template", "error", err)
		http.Error(w, "Failed to create template", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, templateToResponse(template))
}

// handleUpdateTemplate updates a template (admin only)
func (s *Service) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	templateID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid template ID", http.StatusBadRequest)
		return
	}

	if _, err := s.db.TemplateFindById(ctx, pgtype.UUID{Bytes: templateID, Valid: true}); err != nil {
		http.Error(w, "Template not found", http.StatusNotFound)
		return
	}

	var req TemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if msg, ok := validateTemplateRequest(&req); !ok {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	template, err := s.db.TemplateUpdate(ctx, &queries.TemplateUpdateParams{
		ID:          pgtype.UUID{Bytes: templateID, Valid: true},
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Pages:       req.Pages,
		PreviewURL:  req.PreviewURL,
	})
	if err != nil {
		s.logger.Error("Failed to update template", "error", err)
		http.Error(w, "Failed to update template", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, templateToResponse(template))
}

// handleDeleteTemplate soft-deletes a template (admin only)
func (s *Service) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	templateID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid template ID", http.StatusBadRequest)
		return
	}

	if err := s.db.TemplateDelete(ctx, pgtype.UUID{Bytes: templateID, Valid: true}); err != nil {
		s.logger.Error("Failed to delete template", "error", err)
		http.Error(w, "Failed to delete template", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
