package queries

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID           pgtype.UUID
	Name         string
	Email        string
	Username     string
	PasswordHash pgtype.Text
	GithubUserID pgtype.Int4
	Role         string
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
	DeletedAt    pgtype.Timestamptz
}

type Session struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	Token     string
	ExpiresAt pgtype.Timestamptz
	CreatedAt pgtype.Timestamptz
}

type Project struct {
	ID          pgtype.UUID
	UserID      pgtype.UUID
	Name        string
	Slug        string
	Description string
	Pages       []byte
	Published   bool
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
	DeletedAt   pgtype.Timestamptz
}

type Template struct {
	ID          pgtype.UUID
	Name        string
	Category    string
	Description string
	Pages       []byte
	PreviewURL  string
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
	DeletedAt   pgtype.Timestamptz
}

type Domain struct {
	ID                pgtype.UUID
	ProjectID         pgtype.UUID
	Name              string
	Status            string
	VerificationToken string
	IsPrimary         bool
	FailureReason     string
	VerifiedAt        pgtype.Timestamptz
	CreatedAt         pgtype.Timestamptz
	UpdatedAt         pgtype.Timestamptz
	DeletedAt         pgtype.Timestamptz
}

type Deployment struct {
	ID            pgtype.UUID
	ProjectID     pgtype.UUID
	Status        string
	PagesSnapshot []byte
	SiteURL       string
	ErrorMessage  string
	StartedAt     pgtype.Timestamptz
	CompletedAt   pgtype.Timestamptz
	CreatedAt     pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
}

type Image struct {
	ID          pgtype.UUID
	UserID      pgtype.UUID
	FileName    string
	StorageKey  string
	ContentType string
	SizeBytes   int64
	URL         string
	CreatedAt   pgtype.Timestamptz
	DeletedAt   pgtype.Timestamptz
}
