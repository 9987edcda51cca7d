package domainverifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	natsio "github.com/nats-io/nats.go"

	"github.com/pagecraft/pagecraft/internal/database"
	"github.com/pagecraft/pagecraft/internal/database/queries"
	"github.com/pagecraft/pagecraft/internal/shared/config"
	"github.com/pagecraft/pagecraft/internal/shared/dns"
	"github.com/pagecraft/pagecraft/internal/shared/nats"
	"github.com/pagecraft/pagecraft/internal/shared/uuid"
)

const reconcileBatchSize = 50

// Service is the domain verification worker. It reacts to domain.created
// events and periodically re-checks every unverified domain, so customers
// who fix their DNS later still converge without clicking anything.
type Service struct {
	logger     *slog.Logger
	config     *config.DomainVerifierConfig
	db         *database.DB
	natsClient *nats.Client
	verifier   *Verifier
}

type domainEvent struct {
	ID string `json:"id"`
}

// NewService creates the domain verifier service.
func NewService(cfg *config.DomainVerifierConfig, db *database.DB, logger *slog.Logger) (*Service, error) {
	natsClient, err := nats.NewClient(cfg.NATS, "domaind")
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS client: %w", err)
	}

	return &Service{
		logger:     logger,
		config:     cfg,
		db:         db,
		natsClient: natsClient,
		verifier:   NewVerifier(dns.NewResolver(), cfg.EdgeTarget, cfg.EdgeIPs),
	}, nil
}

// Start runs the service until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Starting domain verifier",
		"edge_target", s.config.EdgeTarget,
		"reconcile_interval", s.config.ReconcileInterval,
	)

	queueGroup := "domaind-workers"
	sub, err := s.natsClient.QueueSubscribe("domain.created", queueGroup, func(msg *natsio.Msg) {
		var event domainEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			s.logger.Error("Failed to decode domain event", "error", err)
			return
		}
		if err := s.verifyByID(ctx, event.ID); err != nil {
			s.logger.Error("Failed to verify domain", "domain_id", event.ID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to domain events: %w", err)
	}
	defer sub.Unsubscribe()

	ticker := time.NewTicker(s.config.ReconcileInterval)
	defer ticker.Stop()

	// Do one pass immediately so a restart doesn't wait a full interval.
	s.reconcile(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Shutting down domain verifier")
			return s.natsClient.Close()
		case <-ticker.C:
			s.reconcile(ctx)
		}
	}
}

// reconcile re-checks every pending or failed domain.
func (s *Service) reconcile(ctx context.Context) {
	domains, err := s.db.DomainFindUnverified(ctx, reconcileBatchSize)
	if err != nil {
		s.logger.Error("Failed to list unverified domains", "error", err)
		return
	}

	for _, domain := range domains {
		if ctx.Err() != nil {
			return
		}
		s.verifyDomain(ctx, domain)
	}
}

func (s *Service) verifyByID(ctx context.Context, id string) error {
	domainID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid domain id %q: %w", id, err)
	}

	domain, err := s.db.DomainFindById(ctx, domainID.Pg())
	if err != nil {
		return fmt.Errorf("domain not found: %w", err)
	}

	s.verifyDomain(ctx, domain)
	return nil
}

func (s *Service) verifyDomain(ctx context.Context, domain *queries.Domain) {
	verifyCtx, cancel := context.WithTimeout(ctx, s.config.VerifyTimeout)
	defer cancel()

	verifyErr := s.verifier.Verify(verifyCtx, domain.Name, domain.VerificationToken)
	if verifyErr == nil {
		if _, err := s.db.DomainMarkVerified(ctx, domain.ID); err != nil {
			s.logger.Error("Failed to mark domain verified", "domain", domain.Name, "error", err)
			return
		}
		s.logger.Info("Domain verified", "domain", domain.Name)
		return
	}

	if _, err := s.db.DomainMarkFailed(ctx, &queries.DomainMarkFailedParams{
		ID:            domain.ID,
		FailureReason: verifyErr.Error(),
	}); err != nil {
		s.logger.Error("Failed to mark domain failed", "domain", domain.Name, "error", err)
		return
	}
	s.logger.Info("Domain verification failed", "domain", domain.Name, "reason", verifyErr)
}
