package queries

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pagecraft/pagecraft/internal/shared/uuid"
)

const projectColumns = `id, user_id, name, slug, description, pages, published, created_at, updated_at, deleted_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Slug, &p.Description,
		&p.Pages, &p.Published, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectProjects(rows pgx.Rows) ([]*Project, error) {
	defer rows.Close()
	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

type ProjectCreateParams struct {
	UserID      pgtype.UUID
	Name        string
	Slug        string
	Description string
	Pages       []byte
}

func (q *Queries) ProjectCreate(ctx context.Context, params *ProjectCreateParams) (*Project, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO projects (id, user_id, name, slug, description, pages)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+projectColumns,
		uuid.New().Pg(), params.UserID, params.Name, params.Slug,
		params.Description, params.Pages)
	return scanProject(row)
}

func (q *Queries) ProjectFindById(ctx context.Context, id pgtype.UUID) (*Project, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanProject(row)
}

func (q *Queries) ProjectFindByUser(ctx context.Context, userID pgtype.UUID) ([]*Project, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectProjects(rows)
}

type ProjectUpdateParams struct {
	ID          pgtype.UUID
	Name        string
	Slug        string
	Description string
	Pages       []byte
}

func (q *Queries) ProjectUpdate(ctx context.Context, params *ProjectUpdateParams) (*Project, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE projects
		SET name = $2, slug = $3, description = $4, pages = $5, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+projectColumns,
		params.ID, params.Name, params.Slug, params.Description, params.Pages)
	return scanProject(row)
}

func (q *Queries) ProjectSetPublished(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE projects SET published = true, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}

// ProjectDelete soft-deletes a project.
func (q *Queries) ProjectDelete(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE projects SET deleted_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}
