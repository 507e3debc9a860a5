package ops

import (
	"context"
	"strings"

	"github.com/tabscribe/tabscribe/internal/card"
	"github.com/tabscribe/tabscribe/internal/errors"
	"github.com/tabscribe/tabscribe/internal/settings"
	"github.com/tabscribe/tabscribe/internal/store"
)

// ProjectSummary is a project with its active card count.
type ProjectSummary struct {
	*card.Project
	Cards   int  `json:"cards"`
	Current bool `json:"current"`
}

// ListProjectsOutput contains the result of the ListProjects operation.
type ListProjectsOutput struct {
	Items   []ProjectSummary `json:"items"`
	Current string           `json:"current"`
}

// ListProjects returns every project, the default project first.
func ListProjects(ctx context.Context, st *store.Store, set *settings.Settings) (*ListProjectsOutput, error) {
	projects, err := st.GetProjects(ctx)
	if err != nil {
		return nil, err
	}
	current, err := resolveProject(ctx, st, set, "")
	if err != nil {
		return nil, err
	}

	items := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		cards, err := st.GetCardsByProject(ctx, p.ID, false)
		if err != nil {
			return nil, err
		}
		items = append(items, ProjectSummary{Project: p, Cards: len(cards), Current: p.ID == current})
	}
	return &ListProjectsOutput{Items: items, Current: current}, nil
}

// CreateProjectInput contains parameters for the CreateProject operation.
type CreateProjectInput struct {
	Name string
	Use  bool // make it the current project
}

// CreateProject adds a project with a fresh id.
func CreateProject(ctx context.Context, st *store.Store, set *settings.Settings, input CreateProjectInput) (*card.Project, error) {
	p := &card.Project{Name: input.Name}
	if err := st.PutProject(ctx, p); err != nil {
		return nil, err
	}
	if input.Use {
		if err := set.SetCurrentProject(p.ID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ProjectInput addresses one project.
type ProjectInput struct {
	ID string
}

// RenameProjectInput contains parameters for the RenameProject operation.
type RenameProjectInput struct {
	ID   string
	Name string
}

// RenameProject changes a project's display name.
func RenameProject(ctx context.Context, st *store.Store, input RenameProjectInput) (*card.Project, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}
	p, err := st.UpdateProject(ctx, id, input.Name)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.NewNotFound("project", id)
	}
	return p, nil
}

// DeleteProjectOutput contains the result of the DeleteProject operation.
type DeleteProjectOutput struct {
	ID           string `json:"id"`
	CardsDeleted int    `json:"cards_deleted"`
	Current      string `json:"current"`
}

// DeleteProject removes a project and hard-deletes its cards. When it was
// the current project, the default project becomes current.
func DeleteProject(ctx context.Context, st *store.Store, set *settings.Settings, input ProjectInput) (*DeleteProjectOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}
	if id == card.DefaultProjectID {
		return nil, errors.NewProtected("the default project cannot be deleted")
	}
	if _, err := requireProject(ctx, st, id); err != nil {
		return nil, err
	}

	res, err := st.DeleteProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := set.ResetProjectIfCurrent(id); err != nil {
		return nil, err
	}
	current, err := set.CurrentProject()
	if err != nil {
		return nil, err
	}
	return &DeleteProjectOutput{ID: id, CardsDeleted: res.CardsDeleted, Current: current}, nil
}

// UseProject makes a project current. Names are accepted when unambiguous.
func UseProject(ctx context.Context, st *store.Store, set *settings.Settings, input ProjectInput) (*card.Project, error) {
	ref, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}
	p, err := findProject(ctx, st, ref)
	if err != nil {
		return nil, err
	}
	if err := set.SetCurrentProject(p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// findProject looks a project up by id, then by case-insensitive name.
func findProject(ctx context.Context, st *store.Store, ref string) (*card.Project, error) {
	projects, err := st.GetProjects(ctx)
	if err != nil {
		return nil, err
	}
	var byName []*card.Project
	for _, p := range projects {
		if p.ID == ref {
			return p, nil
		}
		if strings.EqualFold(p.Name, ref) {
			byName = append(byName, p)
		}
	}
	switch len(byName) {
	case 0:
		return nil, errors.NewNotFound("project", ref)
	case 1:
		return byName[0], nil
	}
	return nil, errors.NewInvalidRequest("more than one project is named " + ref + "; use its id")
}
