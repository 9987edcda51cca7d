package queries

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pagecraft/pagecraft/internal/shared/uuid"
)

const domainColumns = `id, project_id, name, status, verification_token, is_primary, failure_reason, verified_at, created_at, updated_at, deleted_at`

func scanDomain(row pgx.Row) (*Domain, error) {
	var d Domain
	err := row.Scan(&d.ID, &d.ProjectID, &d.Name, &d.Status, &d.VerificationToken,
		&d.IsPrimary, &d.FailureReason, &d.VerifiedAt, &d.CreatedAt, &d.UpdatedAt, &d.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func collectDomains(rows pgx.Rows) ([]*Domain, error) {
	defer rows.Close()
	var domains []*Domain
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

type DomainCreateParams struct {
	ProjectID         pgtype.UUID
	Name              string
	VerificationToken string
}

func (q *Queries) DomainCreate(ctx context.Context, params *DomainCreateParams) (*Domain, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO domains (id, project_id, name, verification_token)
		VALUES ($1, $2, lower($3), $4)
		RETURNING `+domainColumns,
		uuid.New().Pg(), params.ProjectID, params.Name, params.VerificationToken)
	return scanDomain(row)
}

func (q *Queries) DomainFindById(ctx context.Context, id pgtype.UUID) (*Domain, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+domainColumns+` FROM domains
		WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanDomain(row)
}

// DomainFindByName looks domains up case-insensitively; names are stored
// lowercase on insert.
func (q *Queries) DomainFindByName(ctx context.Context, name string) (*Domain, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+domainColumns+` FROM domains
		WHERE name = lower($1) AND deleted_at IS NULL`, name)
	return scanDomain(row)
}

func (q *Queries) DomainFindByProject(ctx context.Context, projectID pgtype.UUID) ([]*Domain, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+domainColumns+` FROM domains
		WHERE project_id = $1 AND deleted_at IS NULL
		ORDER BY created_at`, projectID)
	if err != nil {
		return nil, err
	}
	return collectDomains(rows)
}

// DomainFindUnverified returns domains still awaiting verification, oldest
// first, for the reconcile loop.
func (q *Queries) DomainFindUnverified(ctx context.Context, limit int32) ([]*Domain, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+domainColumns+` FROM domains
		WHERE status IN ('pending', 'failed') AND deleted_at IS NULL
		ORDER BY updated_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectDomains(rows)
}

func (q *Queries) DomainMarkVerified(ctx context.Context, id pgtype.UUID) (*Domain, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE domains
		SET status = 'verified', failure_reason = '', verified_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+domainColumns, id)
	return scanDomain(row)
}

type DomainMarkFailedParams struct {
	ID            pgtype.UUID
	FailureReason string
}

func (q *Queries) DomainMarkFailed(ctx context.Context, params *DomainMarkFailedParams) (*Domain, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE domains
		SET status = 'failed', failure_reason = $2, verified_at = NULL, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+domainColumns,
		params.ID, params.FailureReason)
	return scanDomain(row)
}

// DomainSetPrimary makes the given domain the project's primary and clears
// the flag on every sibling. Run inside WithTx.
func (q *Queries) DomainSetPrimary(ctx context.Context, id pgtype.UUID, projectID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE domains SET is_primary = false, updated_at = now()
		WHERE project_id = $1 AND is_primary AND deleted_at IS NULL`, projectID)
	if err != nil {
		return err
	}
	_, err = q.db.Exec(ctx, `
		UPDATE domains SET is_primary = true, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}

func (q *Queries) DomainDelete(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE domains SET deleted_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}
