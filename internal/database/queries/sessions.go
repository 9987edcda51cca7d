package queries

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pagecraft/pagecraft/internal/shared/uuid"
)

const sessionColumns = `id, user_id, token, expires_at, created_at`

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type SessionCreateParams struct {
	UserID    pgtype.UUID
	Token     string
	ExpiresAt pgtype.Timestamptz
}

func (q *Queries) SessionCreate(ctx context.Context, params *SessionCreateParams) (*Session, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO sessions (id, user_id, token, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+sessionColumns,
		uuid.New().Pg(), params.UserID, params.Token, params.ExpiresAt)
	return scanSession(row)
}

func (q *Queries) SessionFindByUserAndNotExpired(ctx context.Context, userID pgtype.UUID) (*Session, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE user_id = $1 AND expires_at > now()
		ORDER BY created_at DESC
		LIMIT 1`, userID)
	return scanSession(row)
}

func (q *Queries) SessionDeleteByUser(ctx context.Context, userID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

func (q *Queries) SessionDeleteExpired(ctx context.Context) error {
	_, err := q.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	return err
}
