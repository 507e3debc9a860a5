package ops

import (
	"context"

	"github.com/tabscribe/tabscribe/internal/errors"
	"github.com/tabscribe/tabscribe/internal/lens"
	"github.com/tabscribe/tabscribe/internal/scholar"
	"github.com/tabscribe/tabscribe/internal/settings"
	"github.com/tabscribe/tabscribe/internal/store"
)

// LensInput contains parameters for the Lens operation.
type LensInput struct {
	ID         string
	Refresh    bool // ignore the cache and recompute
	CachedOnly bool // never compute; a miss returns a nil Result
}

// LensOutput contains the result of the Lens operation.
type LensOutput struct {
	CardID string       `json:"card_id"`
	Result *lens.Result `json:"result"`
}

// Lens returns the literature lens of a card.
func Lens(ctx context.Context, st *store.Store, orch *lens.Orchestrator, input LensInput) (*LensOutput, error) {
	if input.Refresh && input.CachedOnly {
		return nil, errors.NewInvalidRequest("refresh and cached_only are mutually exclusive")
	}
	c, err := requireCard(ctx, st, input.ID, true)
	if err != nil {
		return nil, err
	}

	var res *lens.Result
	switch {
	case input.CachedOnly:
		res, err = orch.Peek(ctx, c)
	case input.Refresh:
		res, err = orch.Refresh(ctx, c)
	default:
		res, err = orch.Lens(ctx, c)
	}
	if err != nil {
		return nil, err
	}
	return &LensOutput{CardID: c.ID, Result: res}, nil
}

// SimilarFinder looks up works related to a query.
type SimilarFinder interface {
	Similar(ctx context.Context, q scholar.Query, limit int) []*scholar.Work
}

// SimilarInput contains parameters for the Similar operation.
type SimilarInput struct {
	ID    string
	Limit int // default 5
}

// SimilarOutput contains the result of the Similar operation.
type SimilarOutput struct {
	CardID string          `json:"card_id"`
	Items  []*scholar.Work `json:"items"`
}

// Similar finds works related to a card without building a full lens.
// It needs hybrid mode.
func Similar(ctx context.Context, st *store.Store, set *settings.Settings, finder SimilarFinder, input SimilarInput) (*SimilarOutput, error) {
	c, err := requireCard(ctx, st, input.ID, true)
	if err != nil {
		return nil, err
	}
	q := scholar.QueryFor(c)
	if q.IsEmpty() {
		return nil, errors.NewInvalidRequest("card has no DOI or title to look up")
	}
	if !set.Online() {
		return nil, errors.NewOffline()
	}

	limit := input.Limit
	if limit <= 0 {
		limit = scholar.DefaultSimilarLimit
	}
	items := finder.Similar(ctx, q, limit)
	if items == nil {
		items = []*scholar.Work{}
	}
	return &SimilarOutput{CardID: c.ID, Items: items}, nil
}

// ModeOutput reports the current mode.
type ModeOutput struct {
	Mode settings.Mode `json:"mode"`
}

// GetMode returns the current mode.
func GetMode(set *settings.Settings) (*ModeOutput, error) {
	m, err := set.Mode()
	if err != nil {
		return nil, err
	}
	return &ModeOutput{Mode: m}, nil
}

// SetMode switches between offline and hybrid.
func SetMode(set *settings.Settings, mode string) (*ModeOutput, error) {
	m, err := settings.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	if err := set.SetMode(m); err != nil {
		return nil, err
	}
	return &ModeOutput{Mode: m}, nil
}
