package queries

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pagecraft/pagecraft/internal/shared/uuid"
)

const userColumns = `id, name, email, username, password_hash, github_user_id, role, created_at, updated_at, deleted_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Username, &u.PasswordHash,
		&u.GithubUserID, &u.Role, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

type UserCreateParams struct {
	Name         string
	Email        string
	Username     string
	PasswordHash pgtype.Text
	GithubUserID pgtype.Int4
}

func (q *Queries) UserCreate(ctx context.Context, params *UserCreateParams) (*User, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO users (id, name, email, username, password_hash, github_user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		uuid.New().Pg(), params.Name, params.Email, params.Username,
		params.PasswordHash, params.GithubUserID)
	return scanUser(row)
}

func (q *Queries) UserFindById(ctx context.Context, id pgtype.UUID) (*User, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanUser(row)
}

// UserFindByEmail looks users up case-insensitively, matching the unique
// index on lower(email).
func (q *Queries) UserFindByEmail(ctx context.Context, email string) (*User, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE lower(email) = lower($1) AND deleted_at IS NULL`, email)
	return scanUser(row)
}

type UserUpdateParams struct {
	ID           pgtype.UUID
	Name         string
	Username     string
	GithubUserID pgtype.Int4
}

func (q *Queries) UserUpdate(ctx context.Context, params *UserUpdateParams) (*User, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE users
		SET name = $2, username = $3, github_user_id = $4, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+userColumns,
		params.ID, params.Name, params.Username, params.GithubUserID)
	return scanUser(row)
}

func (q *Queries) UserList(ctx context.Context) ([]*User, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
