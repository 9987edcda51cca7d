package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pagecraft/pagecraft/internal/ai"
)

type GenerateContentResponse struct {
	Text string `json:"text"`
}

// handleGenerateContent generates copy for a page element
func (s *Service) handleGenerateContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.ai == nil {
		http.Error(w, "AI generation is not configured", http.StatusNotImplemented)
		return
	}

	var req ai.ContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	text, err := s.ai.GenerateContent(ctx, req)
	if err != nil {
		if errors.Is(err, ai.ErrInvalidRequest) {
			http.Error(w, "topic is required", http.StatusBadRequest)
			return
		}
		s.logger.Error("Content generation failed", "error", err)
		http.Error(w, "Content generation failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, GenerateContentResponse{Text: text})
}

// handleGenerateStyle suggests a color palette and font pairing
func (s *Service) handleGenerateStyle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.ai == nil {
		http.Error(w, "AI generation is not configured", http.StatusNotImplemented)
		return
	}

	var req ai.StyleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	suggestion, err := s.ai.GenerateStyle(ctx, req)
	if err != nil {
		if errors.Is(err, ai.ErrInvalidRequest) {
			http.Error(w, "description is required", http.StatusBadRequest)
			return
		}
		s.logger.Error("Style generation failed", "error", err)
		http.Error(w, "Style generation failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, suggestion)
}
