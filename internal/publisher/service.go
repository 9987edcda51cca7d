// Package publisher is the deployment worker: it claims pending deployments,
// renders their page snapshots to static HTML, and uploads the result to
// object storage.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	natsio "github.com/nats-io/nats.go"

	"github.com/pagecraft/pagecraft/internal/database"
	"github.com/pagecraft/pagecraft/internal/database/queries"
	"github.com/pagecraft/pagecraft/internal/shared/config"
	"github.com/pagecraft/pagecraft/internal/shared/nats"
	"github.com/pagecraft/pagecraft/internal/shared/uuid"
	"github.com/pagecraft/pagecraft/internal/storage"
)

// Service is the publisher worker.
type Service struct {
	logger     *slog.Logger
	config     *config.PublisherConfig
	db         *database.DB
	natsClient *nats.Client
	store      storage.Store
	renderer   *Renderer

	// sem bounds the number of concurrent publishes.
	sem chan struct{}
}

type deploymentEvent struct {
	ID string `json:"id"`
}

// NewService creates a new publisher service.
func NewService(cfg *config.PublisherConfig, db *database.DB, logger *slog.Logger) (*Service, error) {
	natsClient, err := nats.NewClient(cfg.NATS, "publisher")
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS client: %w", err)
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	renderer, err := NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	maxConcurrent := cfg.MaxConcurrentPublishes
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	return &Service{
		logger:     logger,
		config:     cfg,
		db:         db,
		natsClient: natsClient,
		store:      store,
		renderer:   renderer,
		sem:        make(chan struct{}, maxConcurrent),
	}, nil
}

// Start runs the service until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Starting publisher",
		"max_concurrent", cap(s.sem),
		"site_base_domain", s.config.SiteBaseDomain,
	)

	// Drain any backlog left over from downtime before relying on events.
	go s.sweepPending(ctx)

	queueGroup := "publisher-workers"
	sub, err := s.natsClient.QueueSubscribe("deployment.created", queueGroup, func(msg *natsio.Msg) {
		var event deploymentEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			s.logger.Error("Failed to decode deployment event", "error", err)
			return
		}
		go s.handleDeploymentCreated(ctx, event.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to deployment events: %w", err)
	}
	defer sub.Unsubscribe()

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Shutting down publisher")
			return s.natsClient.Close()
		case <-ticker.C:
			s.resetStale(ctx)
			s.sweepPending(ctx)
		}
	}
}

// handleDeploymentCreated claims the deployment named by the event and
// publishes it. Losing the claim race is not an error.
func (s *Service) handleDeploymentCreated(ctx context.Context, id string) {
	deploymentID, err := uuid.Parse(id)
	if err != nil {
		s.logger.Error("Invalid deployment id in event", "id", id, "error", err)
		return
	}

	deployment, err := s.db.DeploymentClaim(ctx, deploymentID.Pg())
	if err != nil {
		if err == pgx.ErrNoRows {
			s.logger.Debug("Deployment already claimed", "deployment_id", id)
			return
		}
		s.logger.Error("Failed to claim deployment", "deployment_id", id, "error", err)
		return
	}

	s.runPublish(ctx, deployment)
}

// sweepPending claims and publishes pending deployments until none remain.
func (s *Service) sweepPending(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		deployment, err := s.db.DeploymentClaimNextPending(ctx)
		if err != nil {
			if err != pgx.ErrNoRows {
				s.logger.Error("Failed to claim pending deployment", "error", err)
			}
			return
		}
		s.runPublish(ctx, deployment)
	}
}

// runPublish executes one publish under the concurrency limit and records
// the outcome on the deployment row.
func (s *Service) runPublish(ctx context.Context, deployment *queries.Deployment) {
	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	deploymentID := uuid.FromPg(deployment.ID).String()
	s.logger.Info("Publishing deployment", "deployment_id", deploymentID)

	publishCtx, cancel := context.WithTimeout(ctx, s.config.PublishTimeout)
	defer cancel()

	siteURL, err := s.publish(publishCtx, deployment)
	if err != nil {
		s.logger.Error("Publish failed", "deployment_id", deploymentID, "error", err)
		if _, markErr := s.db.DeploymentMarkFailed(ctx, &queries.DeploymentMarkFailedParams{
			ID:           deployment.ID,
			ErrorMessage: err.Error(),
		}); markErr != nil {
			s.logger.Error("Failed to mark deployment failed", "deployment_id", deploymentID, "error", markErr)
		}
		return
	}

	if _, err := s.db.DeploymentMarkDeployed(ctx, &queries.DeploymentMarkDeployedParams{
		ID:      deployment.ID,
		SiteURL: siteURL,
	}); err != nil {
		s.logger.Error("Failed to mark deployment deployed", "deployment_id", deploymentID, "error", err)
		return
	}

	if err := s.db.ProjectSetPublished(ctx, deployment.ProjectID); err != nil {
		s.logger.Error("Failed to flag project published", "deployment_id", deploymentID, "error", err)
	}

	s.logger.Info("Deployment published", "deployment_id", deploymentID, "site_url", siteURL)
}

// resetStale returns deployments stuck in building to the pending pool.
func (s *Service) resetStale(ctx context.Context) {
	cutoff := pgtype.Timestamptz{Time: time.Now().Add(-s.config.PublishTimeout), Valid: true}
	reset, err := s.db.DeploymentResetStale(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to reset stale deployments", "error", err)
		return
	}
	if reset > 0 {
		s.logger.Warn("Reset stale deployments", "count", reset)
	}
}
