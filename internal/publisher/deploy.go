package publisher

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pagecraft/pagecraft/internal/database/queries"
	"github.com/pagecraft/pagecraft/internal/pages"
	"github.com/pagecraft/pagecraft/internal/shared/uuid"
)

// publish renders every page of the deployment's snapshot and uploads the
// artifacts. The snapshot is rendered, not the live project row, so edits
// made after clicking publish don't leak into an in-flight deployment.
func (s *Service) publish(ctx context.Context, deployment *queries.Deployment) (string, error) {
	project, err := s.db.ProjectFindById(ctx, deployment.ProjectID)
	if err != nil {
		return "", fmt.Errorf("project not found: %w", err)
	}

	doc, err := pages.Parse(deployment.PagesSnapshot)
	if err != nil {
		return "", fmt.Errorf("invalid pages snapshot: %w", err)
	}
	if len(doc) == 0 {
		return "", fmt.Errorf("website has no pages")
	}

	deploymentID := uuid.FromPg(deployment.ID).String()
	projectID := uuid.FromPg(project.ID).String()
	home, _ := doc.Home()

	for _, page := range doc {
		html, err := s.renderer.RenderPage(project.Name, doc, page)
		if err != nil {
			return "", err
		}

		names := []string{page.Slug + ".html"}
		if page.ID == home.ID {
			names = append(names, "index.html")
		}
		for _, name := range names {
			// Immutable per-deployment copy plus the live tree the edge serves.
			for _, prefix := range []string{
				fmt.Sprintf("sites/%s/%s/", projectID, deploymentID),
				fmt.Sprintf("sites/%s/live/", projectID),
			} {
				key := prefix + name
				if err := s.store.Put(ctx, key, "text/html; charset=utf-8", int64(len(html)), bytes.NewReader(html)); err != nil {
					return "", fmt.Errorf("failed to upload %s: %w", key, err)
				}
			}
		}
	}

	siteURL := fmt.Sprintf("https://%s.%s", project.Slug, s.config.SiteBaseDomain)
	return siteURL, nil
}
