package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"

	"github.com/pagecraft/pagecraft/internal/database/queries"
	"github.com/pagecraft/pagecraft/internal/domainverifier"
	"github.com/pagecraft/pagecraft/internal/shared/dns"
)

type Domain struct {
	ID            string      `json:"id"`
	ProjectID     string      `json:"project_id"`
	Name          string      `json:"name"`
	Status        string      `json:"status"`
	IsPrimary     bool        `json:"is_primary"`
	FailureReason string      `json:"failure_reason,omitempty"`
	VerifiedAt    string      `json:"verified_at,omitempty"`
	CreatedAt     string      `json:"created_at"`
	DNSRecords    []DNSRecord `json:"dns_records,omitempty"`
}

// DNSRecord describes a record the customer must create to verify and
// route the domain
type DNSRecord struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

type AttachDomainRequest struct {
	Name string `json:"name"`
}

func (s *Service) domainToResponse(d *queries.Domain) Domain {
	resp := Domain{
		ID:            uuid.UUID(d.ID.Bytes).String(),
		ProjectID:     uuid.UUID(d.ProjectID.Bytes).String(),
		Name:          d.Name,
		Status:        d.Status,
		IsPrimary:     d.IsPrimary,
		FailureReason: d.FailureReason,
		CreatedAt:     d.CreatedAt.Time.Format("2006-01-02T15:04:05Z"),
	}
	if d.VerifiedAt.Valid {
		resp.VerifiedAt = d.VerifiedAt.Time.Format("2006-01-02T15:04:05Z")
	}
	if d.Status != "verified" {
		resp.DNSRecords = []DNSRecord{
			{
				Type:  "TXT",
				Name:  domainverifier.ChallengePrefix + "." + d.Name,
				Value: domainverifier.TokenPrefix + d.VerificationToken,
			},
			{
				Type:  "CNAME",
				Name:  d.Name,
				Value: s.config.EdgeTarget,
			},
		}
	}
	return resp
}

// domainForUser loads the domain from the path and checks that the caller
// owns its project. On failure it writes the error response and returns false.
func (s *Service) domainForUser(w http.ResponseWriter, r *http.Request) (*queries.Domain, bool) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	domainID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid domain ID", http.StatusBadRequest)
		return nil, false
	}

	domain, err := s.db.DomainFindById(ctx, pgtype.UUID{Bytes: domainID, Valid: true})
	if err != nil {
		http.Error(w, "Domain not found", http.StatusNotFound)
		return nil, false
	}

	project, err := s.db.ProjectFindById(ctx, domain.ProjectID)
	if err != nil || project.UserID != userID {
		http.Error(w, "Not authorized to access this domain", http.StatusForbidden)
		return nil, false
	}

	return domain, true
}

// handleListDomains lists the domains attached to a project
func (s *Service) handleListDomains(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := s.projectForUser(w, r)
	if !ok {
		return
	}

	domains, err := s.db.DomainFindByProject(ctx, project.ID)
	if err != nil {
		s.logger.Error("Failed to list domains", "error", err)
		http.Error(w, "Failed to list domains", http.StatusInternalServerError)
		return
	}

	response := lo.Map(domains, func(d *queries.Domain, _ int) Domain {
		return s.domainToResponse(d)
	})

	writeJSON(w, http.StatusOK, response)
}

// handleAttachDomain attaches a custom domain to a project. The domain
// starts pending; the verifier service picks it up from there.
func (s *Service) handleAttachDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	project, ok := s.projectForUser(w, r)
	if !ok {
		return
	}

	var req AttachDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	name := dns.NormalizeHostname(req.Name)
	if name == "" || !strings.Contains(name, ".") {
		http.Error(w, "A valid domain name is required", http.StatusBadRequest)
		return
	}

	// Names are unique across all projects; the lookup is case-insensitive
	// because attach stores them lowercase.
	if existing, err := s.db.DomainFindByName(ctx, name); err == nil {
		if existing.ProjectID == project.ID {
			http.Error(w, "This domain is already attached to this project", http.StatusConflict)
		} else {
			http.Error(w, "This domain is already attached to a project", http.StatusConflict)
		}
		return
	} else if err != pgx.ErrNoRows {
		s.logger.Error("Failed to check existing domain", "error", err)
		http.Error(w, "Failed to attach domain", http.StatusInternalServerError)
		return
	}

	domain, err := s.db.DomainCreate(ctx, &queries.DomainCreateParams{
		ProjectID:         project.ID,
		Name:              name,
		VerificationToken: generateDomainToken(),
	})
	if err != nil {
		if isUniqueViolation(err) {
			http.Error(w, "This domain is already attached to a project", http.StatusConflict)
			return
		}
		s.logger.Error("Failed to attach domain", "error", err)
		http.Error(w, "Failed to attach domain", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, s.domainToResponse(domain))
}

// handleDeleteDomain detaches a domain from its project
func (s *Service) handleDeleteDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	domain, ok := s.domainForUser(w, r)
	if !ok {
		return
	}

	if err := s.db.DomainDelete(ctx, domain.ID); err != nil {
		s.logger.Error("Failed to delete domain", "error", err)
		http.Error(w, "Failed to delete domain", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleVerifyDomain runs the DNS checks immediately instead of waiting
// for the verifier service's next pass
func (s *Service) handleVerifyDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	domain, ok := s.domainForUser(w, r)
	if !ok {
		return
	}

	verifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	verifyErr := s.verifier.Verify(verifyCtx, domain.Name, domain.VerificationToken)

	var updated *queries.Domain
	var err error
	if verifyErr != nil {
		updated, err = s.db.DomainMarkFailed(ctx, &queries.DomainMarkFailedParams{
			ID:            domain.ID,
			FailureReason: verifyErr.Error(),
		})
	} else {
		updated, err = s.db.DomainMarkVerified(ctx, domain.ID)
	}
	if err != nil {
		s.logger.Error("Failed to update domain status", "error", err)
		http.Error(w, "Failed to update domain", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, s.domainToResponse(updated))
}

// handleSetPrimaryDomain marks a verified domain as the project's primary
func (s *Service) handleSetPrimaryDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	domain, ok := s.domainForUser(w, r)
	if !ok {
		return
	}

	if domain.Status != "verified" {
		http.Error(w, "Only verified domains can be set as primary", http.StatusUnprocessableEntity)
		return
	}

	err := s.db.WithTx(ctx, func(q *queries.Queries) error {
		return q.DomainSetPrimary(ctx, domain.ID, domain.ProjectID)
	})
	if err != nil {
		s.logger.Error("Failed to set primary domain", "error", err)
		http.Error(w, "Failed to set primary domain", http.StatusInternalServerError)
		return
	}

	domain.IsPrimary = true
	writeJSON(w, http.StatusOK, s.domainToResponse(domain))
}

// generateDomainToken generates the random ownership challenge token
func generateDomainToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
