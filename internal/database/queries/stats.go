package queries

import (
	"context"
)

// PlatformStats aggregates the counts shown on the admin dashboard.
type PlatformStats struct {
	Users               int64            `json:"users"`
	Projects            int64            `json:"projects"`
	PublishedProjects   int64            `json:"published_projects"`
	Images              int64            `json:"images"`
	DeploymentsByStatus map[string]int64 `json:"deployments_by_status"`
	DomainsByStatus     map[string]int64 `json:"domains_by_status"`
}

func (q *Queries) StatsPlatform(ctx context.Context) (*PlatformStats, error) {
	stats := &PlatformStats{
		DeploymentsByStatus: make(map[string]int64),
		DomainsByStatus:     make(map[string]int64),
	}

	row := q.db.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM users WHERE deleted_at IS NULL),
			(SELECT count(*) FROM projects WHERE deleted_at IS NULL),
			(SELECT count(*) FROM projects WHERE published AND deleted_at IS NULL),
			(SELECT count(*) FROM images WHERE deleted_at IS NULL)`)
	if err := row.Scan(&stats.Users, &stats.Projects, &stats.PublishedProjects, &stats.Images); err != nil {
		return nil, err
	}

	rows, err := q.db.Query(ctx, `SELECT status, count(*) FROM deployments GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.DeploymentsByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = q.db.Query(ctx, `SELECT status, count(*) FROM domains WHERE deleted_at IS NULL GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.DomainsByStatus[status] = count
	}
	return stats, rows.Err()
}
