package ops

import (
	"context"
	"slices"
	"strings"

	"github.com/tabscribe/tabscribe/internal/card"
	"github.com/tabscribe/tabscribe/internal/settings"
	"github.com/tabscribe/tabscribe/internal/store"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	ProjectID      string // optional, defaults to the current project
	AllProjects    bool   // ignore ProjectID and list every project
	Tag            string // optional exact tag filter
	Query          string // optional case-insensitive match on title, snippet and URL
	Limit          int    // default: 20, max: 100
	Offset         int    // default: 0
	IncludeDeleted bool
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	ProjectID  string       `json:"project_id,omitempty"`
	Items      []*card.Card `json:"items"`
	Pagination Pagination   `json:"pagination"`
	Sort       string       `json:"sort"`
}

// List returns cards newest first with pagination.
func List(ctx context.Context, st *store.Store, set *settings.Settings, input ListInput) (*ListOutput, error) {
	var (
		cards     []*card.Card
		projectID string
		err       error
	)
	if input.AllProjects {
		cards, err = st.GetAllCards(ctx)
		if err != nil {
			return nil, err
		}
		if !input.IncludeDeleted {
			cards = slices.DeleteFunc(cards, func(c *card.Card) bool { return !c.Active() })
		}
	} else {
		projectID, err = resolveProject(ctx, st, set, input.ProjectID)
		if err != nil {
			return nil, err
		}
		cards, err = st.GetCardsByProject(ctx, projectID, input.IncludeDeleted)
		if err != nil {
			return nil, err
		}
	}

	cards = filterCards(cards, strings.TrimSpace(input.Tag), strings.TrimSpace(input.Query))
	items, page := paginate(cards, input.Limit, input.Offset)

	return &ListOutput{
		ProjectID:  projectID,
		Items:      items,
		Pagination: page,
		Sort:       "created_at_desc",
	}, nil
}

func filterCards(cards []*card.Card, tag, query string) []*card.Card {
	if tag == "" && query == "" {
		return cards
	}
	query = strings.ToLower(query)
	out := make([]*card.Card, 0, len(cards))
	for _, c := range cards {
		if tag != "" && !slices.Contains(c.Tags, tag) {
			continue
		}
		if query != "" && !matches(c, query) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func matches(c *card.Card, query string) bool {
	for _, field := range []string{c.Title, c.Snippet, c.URL} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// GetInput contains parameters for the Get operation.
type GetInput struct {
	ID             string
	IncludeDeleted bool
}

// Get returns one card.
func Get(ctx context.Context, st *store.Store, input GetInput) (*card.Card, error) {
	return requireCard(ctx, st, input.ID, input.IncludeDeleted)
}
