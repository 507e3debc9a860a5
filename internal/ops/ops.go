// Package ops implements the user-facing operations shared by the CLI,
// the MCP server and the HTTP API.
package ops

import (
	"context"
	"strings"

	"github.com/tabscribe/tabscribe/internal/card"
	"github.com/tabscribe/tabscribe/internal/errors"
	"github.com/tabscribe/tabscribe/internal/settings"
	"github.com/tabscribe/tabscribe/internal/store"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// paginate applies limit defaults and bounds and slices items.
func paginate[T any](items []T, limit, offset int) ([]T, Pagination) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset = max(offset, 0)

	total := len(items)
	start := min(offset, total)
	end := min(start+limit, total)
	page := items[start:end]
	if page == nil {
		page = []T{}
	}
	return page, Pagination{
		Limit:   limit,
		Offset:  offset,
		HasMore: end < total,
		Total:   total,
	}
}

// requireID trims id and rejects an empty one.
func requireID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.NewInvalidRequest("id is required")
	}
	return id, nil
}

// requireCard returns the card addressed by id. Trashed cards count as
// missing unless includeDeleted is set.
func requireCard(ctx context.Context, st *store.Store, id string, includeDeleted bool) (*card.Card, error) {
	id, err := requireID(id)
	if err != nil {
		return nil, err
	}
	c, err := st.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil || (!includeDeleted && !c.Active()) {
		return nil, errors.NewNotFound("card", id)
	}
	return c, nil
}

// requireProject returns the project addressed by id.
func requireProject(ctx context.Context, st *store.Store, id string) (*card.Project, error) {
	id, err := requireID(id)
	if err != nil {
		return nil, err
	}
	p, err := st.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil && id == card.DefaultProjectID {
		// GetProjects recreates the default project.
		if _, err := st.GetProjects(ctx); err != nil {
			return nil, err
		}
		p, err = st.GetProject(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	if p == nil {
		return nil, errors.NewNotFound("project", id)
	}
	return p, nil
}

// resolveProject returns projectID when set, else the current project.
// A current project that no longer exists falls back to the default.
func resolveProject(ctx context.Context, st *store.Store, set *settings.Settings, projectID string) (string, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID != "" {
		if _, err := requireProject(ctx, st, projectID); err != nil {
			return "", err
		}
		return projectID, nil
	}

	current, err := set.CurrentProject()
	if err != nil {
		return "", err
	}
	if current == card.DefaultProjectID {
		return current, nil
	}
	p, err := st.GetProject(ctx, current)
	if err != nil {
		return "", err
	}
	if p == nil {
		if err := set.SetCurrentProject(card.DefaultProjectID); err != nil {
			return "", err
		}
		return card.DefaultProjectID, nil
	}
	return current, nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
