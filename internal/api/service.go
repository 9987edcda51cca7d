package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/pagecraft/pagecraft/internal/ai"
	"github.com/pagecraft/pagecraft/internal/database"
	"github.com/pagecraft/pagecraft/internal/domainverifier"
	"github.com/pagecraft/pagecraft/internal/shared/config"
	"github.com/pagecraft/pagecraft/internal/shared/dns"
	"github.com/pagecraft/pagecraft/internal/shared/health"
	"github.com/pagecraft/pagecraft/internal/storage"
	"github.com/pagecraft/pagecraft/internal/unsplash"
)

// Service represents the public API service
type Service struct {
	logger    *slog.Logger
	config    *config.APIConfig
	db        *database.DB
	store     storage.Store
	ai        *ai.Service
	unsplash  *unsplash.Client
	verifier  *domainverifier.Verifier
	health    *health.Handler
	limiter   *clientLimiter
	aiLimiter *clientLimiter
	server    *http.Server
}

// NewService creates a new API service
func NewService(ctx context.Context, cfg *config.APIConfig, db *database.DB, logger *slog.Logger) (*Service, error) {
	store, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, err
	}

	s := &Service{
		logger:    logger,
		config:    cfg,
		db:        db,
		store:     store,
		verifier:  domainverifier.NewVerifier(dns.NewResolver(), cfg.EdgeTarget, cfg.EdgeIPs),
		health:    health.NewHandler(),
		limiter:   newClientLimiter(cfg.RequestsPerMin),
		aiLimiter: newClientLimiter(cfg.AI.RequestsPerMin),
	}

	if cfg.UnsplashKey != "" {
		s.unsplash = unsplash.NewClient(cfg.UnsplashKey)
	}

	if cfg.AI.APIKey != "" {
		gen, err := ai.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			return nil, err
		}
		s.ai = ai.NewService(gen, cfg.AI.CacheTTL, cfg.AI.CacheMaxEntries, logger)
	} else {
		logger.Warn("AI API key not configured, generation endpoints disabled")
	}

	s.health.Register("database", func(ctx context.Context) error {
		return db.Pool.Ping(ctx)
	})
	s.health.Register("storage", func(ctx context.Context) error {
		return store.Ping(ctx)
	})

	return s, nil
}

// Start starts the API service and blocks until the context is cancelled
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Starting public API service",
		"port", s.config.Port,
		"base_url", s.config.BaseURL,
	)

	if s.ai != nil {
		s.ai.StartJanitor(ctx, time.Minute)
	}

	// Expired sessions are cleaned up in the background.
	go s.sessionJanitor(ctx)

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	handler := s.withCORS(s.withRateLimit(mux))

	s.server = &http.Server{
		Addr:    ":" + s.config.Port,
		Handler: handler,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Failed to start HTTP server", "error", err)
		}
	}()

	<-ctx.Done()

	s.logger.Info("Shutting down API service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes sets up the HTTP routes for the API
func (s *Service) setupRoutes(mux *http.ServeMux) {
	// Health check
	mux.Handle("GET /health", s.health)

	// Auth
	mux.HandleFunc("POST /v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /v1/auth/login", s.handleLogin)
	mux.HandleFunc("GET /v1/auth/github", s.handleGitHubAuth)
	mux.HandleFunc("GET /v1/auth/github/callback", s.handleGitHubCallback)
	mux.HandleFunc("POST /v1/auth/logout", s.requireAuth(s.handleLogout))
	mux.HandleFunc("GET /v1/auth/me", s.requireAuth(s.handleGetCurrentUser))

	// Current user
	mux.HandleFunc("GET /v1/users/me", s.requireAuth(s.handleGetCurrentUser))
	mux.HandleFunc("PATCH /v1/users/me", s.requireAuth(s.handleUpdateCurrentUser))

	// Projects
	mux.HandleFunc("GET /v1/projects", s.requireAuth(s.handleListProjects))
	mux.HandleFunc("POST /v1/projects", s.requireAuth(s.handleCreateProject))
	mux.HandleFunc("POST /v1/projects/from-template", s.requireAuth(s.handleCreateProjectFromTemplate))
	mux.HandleFunc("GET /v1/projects/{id}", s.requireAuth(s.handleGetProject))
	mux.HandleFunc("PATCH /v1/projects/{id}", s.requireAuth(s.handleUpdateProject))
	mux.HandleFunc("DELETE /v1/projects/{id}", s.requireAuth(s.handleDeleteProject))
	mux.HandleFunc("POST /v1/projects/{id}/publish", s.requireAuth(s.handlePublishProject))

	// Deployments
	mux.HandleFunc("GET /v1/projects/{id}/deployments", s.requireAuth(s.handleListDeployments))
	mux.HandleFunc("GET /v1/deployments/{id}", s.requireAuth(s.handleGetDeployment))

	// Domains
	mux.HandleFunc("GET /v1/projects/{id}/domains", s.requireAuth(s.handleListDomains))
	mux.HandleFunc("POST /v1/projects/{id}/domains", s.requireAuth(s.handleAttachDomain))
	mux.HandleFunc("DELETE /v1/domains/{id}", s.requireAuth(s.handleDeleteDomain))
	mux.HandleFunc("POST /v1/domains/{id}/verify", s.requireAuth(s.handleVerifyDomain))
	mux.HandleFunc("POST /v1/domains/{id}/primary", s.requireAuth(s.handleSetPrimaryDomain))

	// Templates: reads are public, writes are admin-only
	mux.HandleFunc("GET /v1/templates", s.handleListTemplates)
	mux.HandleFunc("GET /v1/templates/{id}", s.handleGetTemplate)
	mux.HandleFunc("POST /v1/templates", s.requireAdmin(s.handleCreateTemplate))
	mux.HandleFunc("PUT /v1/templates/{id}", s.requireAdmin(s.handleUpdateTemplate))
	mux.HandleFunc("DELETE /v1/templates/{id}", s.requireAdmin(s.handleDeleteTemplate))

	// Images
	mux.HandleFunc("POST /v1/images", s.requireAuth(s.handleUploadImage))
	mux.HandleFunc("GET /v1/images", s.requireAuth(s.handleListImages))
	mux.HandleFunc("DELETE /v1/images/{id}", s.requireAuth(s.handleDeleteImage))
	mux.HandleFunc("GET /v1/images/unsplash", s.requireAuth(s.handleSearchUnsplash))

	// AI generation
	mux.HandleFunc("POST /v1/ai/generate/content", s.requireAuth(s.withAILimit(s.handleGenerateContent)))
	mux.HandleFunc("POST /v1/ai/generate/style", s.requireAuth(s.withAILimit(s.handleGenerateStyle)))

	// Admin
	mux.HandleFunc("GET /v1/admin/stats", s.requireAdmin(s.handleAdminStats))
	mux.HandleFunc("GET /v1/admin/users", s.requireAdmin(s.handleAdminListUsers))
}

// sessionJanitor periodically removes expired sessions
func (s *Service) sessionJanitor(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.db.SessionDeleteExpired(ctx); err != nil {
				s.logger.Error("Failed to delete expired sessions", "error", err)
			}
		}
	}
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
