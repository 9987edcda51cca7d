package queries

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pagecraft/pagecraft/internal/shared/uuid"
)

const templateColumns = `id, name, category, description, pages, preview_url, created_at, updated_at, deleted_at`

func scanTemplate(row pgx.Row) (*Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.Name, &t.Category, &t.Description,
		&t.Pages, &t.PreviewURL, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type TemplateCreateParams struct {
	Name        string
	Category    string
	Description string
	Pages       []byte
	PreviewURL  string
}

func (q *Queries) TemplateCreate(ctx context.Context, params *TemplateCreateParams) (*Template, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO templates (id, name, category, description, pages, preview_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+templateColumns,
		uuid.New().Pg(), params.Name, params.Category, params.Description,
		params.Pages, params.PreviewURL)
	return scanTemplate(row)
}

func (q *Queries) TemplateFindById(ctx context.Context, id pgtype.UUID) (*Template, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+templateColumns+` FROM templates
		WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanTemplate(row)
}

// TemplateList returns all templates, optionally filtered by category.
// An empty category matches everything.
func (q *Queries) TemplateList(ctx context.Context, category string) ([]*Template, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+templateColumns+` FROM templates
		WHERE deleted_at IS NULL AND ($1 = '' OR category = $1)
		ORDER BY name`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []*Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

type TemplateUpdateParams struct {
	ID          pgtype.UUID
	Name        string
	Category    string
	Description string
	Pages       []byte
	PreviewURL  string
}

func (q *Queries) TemplateUpdate(ctx context.Context, params *TemplateUpdateParams) (*Template, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE templates
		SET name = $2, category = $3, description = $4, pages = $5, preview_url = $6, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+templateColumns,
		params.ID, params.Name, params.Category, params.Description,
		params.Pages, params.PreviewURL)
	return scanTemplate(row)
}

func (q *Queries) TemplateDelete(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE templates SET deleted_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}
