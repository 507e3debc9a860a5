package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tabscribe/tabscribe/internal/card"
	"github.com/tabscribe/tabscribe/internal/db"
	"github.com/tabscribe/tabscribe/internal/errors"
)

// ProjectDeletion reports what DeleteProject removed.
type ProjectDeletion struct {
	Deleted      bool `json:"deleted"`
	CardsDeleted int  `json:"cards_deleted"`
}

// PutProject inserts p or renames the project with the same id. An empty
// ID gets a fresh UUID and an empty CreatedAt gets the current time.
func (s *Store) PutProject(ctx context.Context, p *card.Project) error {
	if p == nil {
		return errors.NewInvalidRequest("project is required")
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return errors.NewInvalidRequest("project name is required")
	}
	if p.ID == "" {
		p.ID = s.newID()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = s.NowMillis()
	}

	if err := s.withTx(ctx, func(tx *sql.Tx) error {
		return db.PutProject(ctx, tx, p)
	}); err != nil {
		return err
	}
	s.publish(ProjectPut, "", p.ID)
	return nil
}

// GetProjects returns every project, the default project first. On a
// database whose projects table does not exist yet it returns an empty
// list. Otherwise the default project is created if it went missing.
func (s *Store) GetProjects(ctx context.Context) ([]*card.Project, error) {
	ok, err := db.TableExists(ctx, s.db, "projects")
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if !ok {
		return []*card.Project{}, nil
	}

	if _, err := db.EnsureDefaultProject(ctx, s.db); err != nil {
		return nil, err
	}
	projects, err := db.ListProjects(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []*card.Project{}
	}
	return projects, nil
}

// GetProject returns one project, or nil, nil when absent.
func (s *Store) GetProject(ctx context.Context, id string) (*card.Project, error) {
	return db.GetProject(ctx, s.db, id)
}

// UpdateProject renames a project. Returns nil, nil when id is absent.
func (s *Store) UpdateProject(ctx context.Context, id, name string) (*card.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewInvalidRequest("project name is required")
	}

	var updated *card.Project
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ok, err := db.RenameProject(ctx, tx, id, name)
		if err != nil || !ok {
			return err
		}
		updated, err = db.GetProject(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if updated != nil {
		s.publish(ProjectPut, "", id)
	}
	return updated, nil
}

// DeleteProject removes a project and hard-deletes all of its cards in one
// transaction. The default project cannot be deleted.
func (s *Store) DeleteProject(ctx context.Context, id string) (*ProjectDeletion, error) {
	if id == card.DefaultProjectID {
		return nil, errors.NewProtected("the default project cannot be deleted")
	}

	res := &ProjectDeletion{}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		n, err := db.DeleteCardsByProject(ctx, tx, id)
		if err != nil {
			return err
		}
		res.CardsDeleted = n
		res.Deleted, err = db.DeleteProject(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if res.Deleted || res.CardsDeleted > 0 {
		s.publish(ProjectDeleted, "", id)
	}
	return res, nil
}
