package store

import (
	"context"
	"database/sql"

	"github.com/tabscribe/tabscribe/internal/card"
	"github.com/tabscribe/tabscribe/internal/db"
	"github.com/tabscribe/tabscribe/internal/errors"
)

// PutCard inserts c or fully replaces the card with the same id.
// Publishes CardAdded for a new id and CardUpdated for an overwrite.
func (s *Store) PutCard(ctx context.Context, c *card.Card) error {
	if c == nil || c.ID == "" {
		return errors.NewInvalidRequest("card id is required")
	}
	if c.ProjectID == "" {
		c.ProjectID = card.DefaultProjectID
	}

	var existed bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		prev, err := db.GetCard(ctx, tx, c.ID)
		if err != nil {
			return err
		}
		existed = prev != nil
		if err := requireProject(ctx, tx, c.ProjectID); err != nil {
			return err
		}
		return db.PutCard(ctx, tx, c)
	})
	if err != nil {
		return err
	}

	if existed {
		s.publish(CardUpdated, c.ID, c.ProjectID)
	} else {
		s.publish(CardAdded, c.ID, c.ProjectID)
	}
	return nil
}

// requireProject fails with NOT_FOUND unless projectID names a stored
// project. The default project always qualifies.
func requireProject(ctx context.Context, q db.Querier, projectID string) error {
	if projectID == card.DefaultProjectID {
		return nil
	}
	p, err := db.GetProject(ctx, q, projectID)
	if err != nil {
		return err
	}
	if p == nil {
		return errors.NewNotFound("project", projectID)
	}
	return nil
}

// GetCard returns the card with id regardless of trash state, or nil, nil.
func (s *Store) GetCard(ctx context.Context, id string) (*card.Card, error) {
	return db.GetCard(ctx, s.db, id)
}

// GetAllCards returns every card regardless of project or deletion state, newest first.
func (s *Store) GetAllCards(ctx context.Context) ([]*card.Card, error) {
	return db.ListCards(ctx, s.db, db.CardFilter{Deleted: db.AnyDeleted})
}

// GetCardsByProject returns the project's cards, newest first. With
// includeDeleted false only active cards are returned.
func (s *Store) GetCardsByProject(ctx context.Context, projectID string, includeDeleted bool) ([]*card.Card, error) {
	f := db.CardFilter{ProjectID: &projectID, Deleted: db.OnlyActive}
	if includeDeleted {
		f.Deleted = db.AnyDeleted
	}
	return db.ListCards(ctx, s.db, f)
}

// GetTrash returns soft-deleted cards, newest first. An empty projectID
// spans every project.
func (s *Store) GetTrash(ctx context.Context, projectID string) ([]*card.Card, error) {
	f := db.CardFilter{Deleted: db.OnlyDeleted}
	if projectID != "" {
		f.ProjectID = &projectID
	}
	return db.ListCards(ctx, s.db, f)
}

// UpdateCard merges patch into the stored card. The current row is re-read
// inside the write transaction so concurrent patches to different fields
// are not lost. Returns the updated card, or nil, nil when id is absent.
func (s *Store) UpdateCard(ctx context.Context, id string, patch card.Patch) (*card.Card, error) {
	var updated *card.Card
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		c, err := db.GetCard(ctx, tx, id)
		if err != nil || c == nil {
			return err
		}
		patch.Apply(c)
		if c.ProjectID == "" {
			c.ProjectID = card.DefaultProjectID
		}
		if patch.ProjectID != nil {
			if err := requireProject(ctx, tx, c.ProjectID); err != nil {
				return err
			}
		}
		if err := db.PutCard(ctx, tx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated != nil {
		s.publish(CardUpdated, updated.ID, updated.ProjectID)
	}
	return updated, nil
}

// SoftDeleteCard moves a card to the trash. No-op when absent.
// Returns whether a card was changed.
func (s *Store) SoftDeleteCard(ctx context.Context, id string) (bool, error) {
	now := s.NowMillis()
	return s.setDeletedAt(ctx, id, &now, CardTrashed)
}

// RestoreCard clears deletedAt. No-op when absent.
func (s *Store) RestoreCard(ctx context.Context, id string) (bool, error) {
	return s.setDeletedAt(ctx, id, nil, CardRestored)
}

func (s *Store) setDeletedAt(ctx context.Context, id string, deletedAt *int64, ev EventType) (bool, error) {
	var changed bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		changed, err = db.SetDeletedAt(ctx, tx, id, deletedAt)
		return err
	})
	if err != nil {
		return false, err
	}
	if changed {
		s.publish(ev, id, "")
	}
	return changed, nil
}

// DeleteCard permanently removes a card. No-op when absent.
func (s *Store) DeleteCard(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		deleted, err = db.DeleteCard(ctx, tx, id)
		return err
	})
	if err != nil {
		return false, err
	}
	if deleted {
		s.publish(CardPurged, id, "")
	}
	return deleted, nil
}

// LatestCreatedAt returns the newest createdAt in the store, 0 when empty.
func (s *Store) LatestCreatedAt(ctx context.Context) (int64, error) {
	return db.MaxCreatedAt(ctx, s.db)
}

// ExpiredTrash lists ids of trashed cards whose deletedAt is before cutoff.
func (s *Store) ExpiredTrash(ctx context.Context, cutoff int64) ([]string, error) {
	return db.ListDeletedBefore(ctx, s.db, cutoff)
}

// PurgeExpired hard-deletes id only if it is still trashed with deletedAt
// before cutoff when the delete runs. A card restored in the meantime is kept.
func (s *Store) PurgeExpired(ctx context.Context, id string, cutoff int64) (bool, error) {
	var deleted bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		deleted, err = db.DeleteIfDeletedBefore(ctx, tx, id, cutoff)
		return err
	})
	if err != nil {
		return false, err
	}
	if deleted {
		s.publish(CardPurged, id, "")
	}
	return deleted, nil
}
