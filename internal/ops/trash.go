package ops

import (
	"context"

	"github.com/tabscribe/tabscribe/internal/card"
	"github.com/tabscribe/tabscribe/internal/store"
)

// TrashInput addresses one card for Trash and Restore.
type TrashInput struct {
	ID string
}

// TrashOutput contains the result of the Trash and Restore operations.
type TrashOutput struct {
	ID      string `json:"id"`
	Changed bool   `json:"changed"`
}

// Trash soft-deletes a card. Trashing a card already in the trash restamps it.
func Trash(ctx context.Context, st *store.Store, input TrashInput) (*TrashOutput, error) {
	c, err := requireCard(ctx, st, input.ID, true)
	if err != nil {
		return nil, err
	}
	changed, err := st.SoftDeleteCard(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &TrashOutput{ID: c.ID, Changed: changed}, nil
}

// Restore moves a card out of the trash. Restoring an active card is a no-op.
func Restore(ctx context.Context, st *store.Store, input TrashInput) (*TrashOutput, error) {
	c, err := requireCard(ctx, st, input.ID, true)
	if err != nil {
		return nil, err
	}
	if c.Active() {
		return &TrashOutput{ID: c.ID, Changed: false}, nil
	}
	changed, err := st.RestoreCard(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &TrashOutput{ID: c.ID, Changed: changed}, nil
}

// ListTrashInput contains parameters for the ListTrash operation.
type ListTrashInput struct {
	ProjectID string // optional, empty lists the trash of every project
	Limit     int
	Offset    int
}

// ListTrashOutput contains the result of the ListTrash operation.
type ListTrashOutput struct {
	Items      []*card.Card `json:"items"`
	Pagination Pagination   `json:"pagination"`
}

// ListTrash returns soft-deleted cards, newest first.
func ListTrash(ctx context.Context, st *store.Store, input ListTrashInput) (*ListTrashOutput, error) {
	if input.ProjectID != "" {
		if _, err := requireProject(ctx, st, input.ProjectID); err != nil {
			return nil, err
		}
	}
	cards, err := st.GetTrash(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	items, page := paginate(cards, input.Limit, input.Offset)
	return &ListTrashOutput{Items: items, Pagination: page}, nil
}
