package queries

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pagecraft/pagecraft/internal/shared/uuid"
)

const imageColumns = `id, user_id, file_name, storage_key, content_type, size_bytes, url, created_at, deleted_at`

func scanImage(row pgx.Row) (*Image, error) {
	var i Image
	err := row.Scan(&i.ID, &i.UserID, &i.FileName, &i.StorageKey,
		&i.ContentType, &i.SizeBytes, &i.URL, &i.CreatedAt, &i.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

type ImageCreateParams struct {
	UserID      pgtype.UUID
	FileName    string
	StorageKey  string
	ContentType string
	SizeBytes   int64
	URL         string
}

func (q *Queries) ImageCreate(ctx context.Context, params *ImageCreateParams) (*Image, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO images (id, user_id, file_name, storage_key, content_type, size_bytes, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+imageColumns,
		uuid.New().Pg(), params.UserID, params.FileName, params.StorageKey,
		params.ContentType, params.SizeBytes, params.URL)
	return scanImage(row)
}

func (q *Queries) ImageFindById(ctx context.Context, id pgtype.UUID) (*Image, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+imageColumns+` FROM images
		WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanImage(row)
}

func (q *Queries) ImageFindByUser(ctx context.Context, userID pgtype.UUID) ([]*Image, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+imageColumns+` FROM images
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []*Image
	for rows.Next() {
		i, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, i)
	}
	return images, rows.Err()
}

func (q *Queries) ImageDelete(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE images SET deleted_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	return err
}
