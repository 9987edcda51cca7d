package queries

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pagecraft/pagecraft/internal/shared/uuid"
)

const deploymentColumns = `id, project_id, status, pages_snapshot, site_url, error_message, started_at, completed_at, created_at, updated_at`

func scanDeployment(row pgx.Row) (*Deployment, error) {
	var d Deployment
	err := row.Scan(&d.ID, &d.ProjectID, &d.Status, &d.PagesSnapshot, &d.SiteURL,
		&d.ErrorMessage, &d.StartedAt, &d.CompletedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

type DeploymentCreateParams struct {
	ProjectID     pgtype.UUID
	PagesSnapshot []byte
}

func (q *Queries) DeploymentCreate(ctx context.Context, params *DeploymentCreateParams) (*Deployment, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO deployments (id, project_id, pages_snapshot)
		VALUES ($1, $2, $3)
		RETURNING `+deploymentColumns,
		uuid.New().Pg(), params.ProjectID, params.PagesSnapshot)
	return scanDeployment(row)
}

func (q *Queries) DeploymentFindById(ctx context.Context, id pgtype.UUID) (*Deployment, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+deploymentColumns+` FROM deployments
		WHERE id = $1`, id)
	return scanDeployment(row)
}

func (q *Queries) DeploymentFindByProject(ctx context.Context, projectID pgtype.UUID) ([]*Deployment, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+deploymentColumns+` FROM deployments
		WHERE project_id = $1
		ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deployments []*Deployment
	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, err
		}
		deployments = append(deployments, d)
	}
	return deployments, rows.Err()
}

// DeploymentClaim atomically moves a pending deployment to building so only
// one publisher instance works on it. Returns pgx.ErrNoRows when another
// worker got there first.
func (q *Queries) DeploymentClaim(ctx context.Context, id pgtype.UUID) (*Deployment, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE deployments
		SET status = 'building', started_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+deploymentColumns, id)
	return scanDeployment(row)
}

// DeploymentClaimNextPending claims the oldest pending deployment, if any.
// Used by the startup sweep so a backlog left over from downtime is drained.
func (q *Queries) DeploymentClaimNextPending(ctx context.Context) (*Deployment, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE deployments
		SET status = 'building', started_at = now(), updated_at = now()
		WHERE id = (
			SELECT id FROM deployments
			WHERE status = 'pending'
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING `+deploymentColumns)
	return scanDeployment(row)
}

type DeploymentMarkDeployedParams struct {
	ID      pgtype.UUID
	SiteURL string
}

func (q *Queries) DeploymentMarkDeployed(ctx context.Context, params *DeploymentMarkDeployedParams) (*Deployment, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE deployments
		SET status = 'deployed', site_url = $2, error_message = '', completed_at = now(), updated_at = now()
		WHERE id = $1
		RETURNING `+deploymentColumns,
		params.ID, params.SiteURL)
	return scanDeployment(row)
}

type DeploymentMarkFailedParams struct {
	ID           pgtype.UUID
	ErrorMessage string
}

func (q *Queries) DeploymentMarkFailed(ctx context.Context, params *DeploymentMarkFailedParams) (*Deployment, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE deployments
		SET status = 'failed', error_message = $2, completed_at = now(), updated_at = now()
		WHERE id = $1
		RETURNING `+deploymentColumns,
		params.ID, params.ErrorMessage)
	return scanDeployment(row)
}

// DeploymentResetStale returns deployments stuck in building longer than the
// given timeout back to pending, so a crashed publisher doesn't strand them.
func (q *Queries) DeploymentResetStale(ctx context.Context, olderThan pgtype.Timestamptz) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE deployments
		SET status = 'pending', started_at = NULL, updated_at = now()
		WHERE status = 'building' AND started_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
