package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"

	"github.com/pagecraft/pagecraft/internal/database/queries"
)

type Image struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	URL         string `json:"url"`
	CreatedAt   string `json:"created_at"`
}

// allowedImageTypes maps acceptable upload content types to file extensions.
// SVG is deliberately absent: it can carry scripts and these objects are
// served from the public storage URL.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func imageToResponse(i *queries.Image) Image {
	return Image{
		ID:          uuid.UUID(i.ID.Bytes).String(),
		FileName:    i.FileName,
		ContentType: i.ContentType,
		SizeBytes:   i.SizeBytes,
		URL:         i.URL,
		CreatedAt:   i.CreatedAt.Time.Format("2006-01-02T15:04:05Z"),
	}
}

// handleUploadImage stores an uploaded image and records it for the user
func (s *Service) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	maxBytes := s.config.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		http.Error(w, fmt.Sprintf("Upload exceeds the %d MB limit", s.config.MaxUploadMB), http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		http.Error(w, "Unsupported image type", http.StatusUnsupportedMediaType)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}

	key := fmt.Sprintf("images/%s/%s%s", uuid.UUID(userID.Bytes).String(), uuid.NewString(), ext)
	if err := s.store.Put(ctx, key, contentType, int64(len(data)), bytes.NewReader(data)); err != nil {
		s.logger.Error("Failed to store image", "error", err, "key", key)
		http.Error(w, "Failed to store image", http.StatusInternalServerError)
		return
	}

	image, err := s.db.ImageCreate(ctx, &queries.ImageCreateParams{
		UserID:      userID,
		FileName:    filepath.Base(header.Filename),
		StorageKey:  key,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		URL:         s.store.URL(key),
	})
	if err != nil {
		s.logger.Error("Failed to record image", "error", err)
		http.Error(w, "Failed to record image", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, imageToResponse(image))
}

// handleListImages lists the authenticated user's images
func (s *Service) handleListImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	images, err := s.db.ImageFindByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list images", "error", err)
		http.Error(w, "Failed to list images", http.StatusInternalServerError)
		return
	}

	response := lo.Map(images, func(i *queries.Image, _ int) Image {
		return imageToResponse(i)
	})

	writeJSON(w, http.StatusOK, response)
}

// handleDeleteImage removes an image from storage and the library
func (s *Service) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	imageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid image ID", http.StatusBadRequest)
		return
	}

	image, err := s.db.ImageFindById(ctx, pgtype.UUID{Bytes: imageID, Valid: true})
	if err != nil {
		http.Error(w, "Image not found", http.StatusNotFound)
		return
	}

	if image.UserID != userID {
		http.Error(w, "Not authorized to delete this image", http.StatusForbidden)
		return
	}

	if err := s.store.Delete(ctx, image.StorageKey); err != nil {
		s.logger.Error("Failed to delete stored object", "error", err, "key", image.StorageKey)
		http.Error(w, "Failed to delete image", http.StatusInternalServerError)
		return
	}

	if err := s.db.ImageDelete(ctx, image.ID); err != nil {
		s.logger.Error("Failed to delete image record", "error", err)
		http.Error(w, "Failed to delete image", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleSearchUnsplash proxies stock photo search so the Unsplash key
// stays server-side
func (s *Service) handleSearchUnsplash(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.unsplash == nil {
		http.Error(w, "Stock photo search is not configured", http.StatusNotImplemented)
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		http.Error(w, "query parameter is required", http.StatusBadRequest)
		return
	}

	perPage := 20
	if v := r.URL.Query().Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 30 {
			http.Error(w, "per_page must be between 1 and 30", http.StatusBadRequest)
			return
		}
		perPage = n
	}

	photos, err := s.unsplash.Search(ctx, query, perPage)
	if err != nil {
		s.logger.Error("Unsplash search failed", "error", err)
		http.Error(w, "Stock photo search failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, photos)
}
