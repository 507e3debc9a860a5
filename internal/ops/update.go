package ops

import (
	"context"
	"strings"

	"github.com/tabscribe/tabscribe/internal/card"
	"github.com/tabscribe/tabscribe/internal/errors"
	"github.com/tabscribe/tabscribe/internal/store"
	"github.com/tabscribe/tabscribe/internal/transform"
)

// UpdateInput contains parameters for the Update operation.
type UpdateInput struct {
	ID string

	// Editable fields (nil = don't change)
	Title     *string
	URL       *string
	Snippet   *string
	Tags      *[]string
	DOI       *string
	ProjectID *string
}

// UpdateOutput contains the result of the Update, Tag and ApplyAction operations.
type UpdateOutput struct {
	Card *card.Card `json:"card"`
}

// Update modifies an active card.
func Update(ctx context.Context, st *store.Store, input UpdateInput) (*UpdateOutput, error) {
	if input.Title == nil && input.URL == nil && input.Snippet == nil &&
		input.Tags == nil && input.DOI == nil && input.ProjectID == nil {
		return nil, errors.NewInvalidRequest("at least one editable field must be provided")
	}

	c, err := requireCard(ctx, st, input.ID, false)
	if err != nil {
		return nil, err
	}

	patch := card.Patch{
		Title: input.Title,
		URL:   input.URL,
		Tags:  input.Tags,
		DOI:   input.DOI,
	}
	if input.Snippet != nil {
		s := strings.TrimSpace(*input.Snippet)
		if s == "" {
			return nil, errors.NewInvalidRequest("snippet must not be empty")
		}
		patch.Snippet = &s
	}
	if input.ProjectID != nil {
		p, err := requireProject(ctx, st, *input.ProjectID)
		if err != nil {
			return nil, err
		}
		patch.ProjectID = &p.ID
	}

	return applyPatch(ctx, st, c.ID, patch)
}

// TagInput contains parameters for the Tag operation.
type TagInput struct {
	ID     string
	Add    []string
	Remove []string
}

// Tag adds and removes tags on an active card. Removal wins when a tag is in both lists.
func Tag(ctx context.Context, st *store.Store, input TagInput) (*UpdateOutput, error) {
	if len(input.Add) == 0 && len(input.Remove) == 0 {
		return nil, errors.NewInvalidRequest("add or remove must list at least one tag")
	}
	c, err := requireCard(ctx, st, input.ID, false)
	if err != nil {
		return nil, err
	}

	remove := make(map[string]bool, len(input.Remove))
	for _, t := range input.Remove {
		remove[strings.TrimSpace(t)] = true
	}
	var tags []string
	for _, t := range card.NormalizeTags(append(append([]string(nil), c.Tags...), input.Add...)) {
		if !remove[t] {
			tags = append(tags, t)
		}
	}
	if tags == nil {
		tags = []string{}
	}
	return applyPatch(ctx, st, c.ID, card.Patch{Tags: &tags})
}

// Transformer rewrites text for an action.
type Transformer interface {
	Transform(ctx context.Context, a transform.Action, text string, opts transform.Options) (string, error)
}

// ActionInput contains parameters for the ApplyAction operation.
type ActionInput struct {
	ID     string
	Action string // summarize, rewrite, proofread or translate
	Style  string // rewrite only
	Target string // translate only
}

// ApplyAction replaces a card's snippet with the transformed text and
// records the action's badge once.
func ApplyAction(ctx context.Context, st *store.Store, tr Transformer, input ActionInput) (*UpdateOutput, error) {
	action, err := transform.ParseAction(input.Action)
	if err != nil {
		return nil, err
	}
	if tr == nil {
		return nil, errors.NewInvalidRequest("AI actions are not configured (set ollama_url)")
	}
	c, err := requireCard(ctx, st, input.ID, false)
	if err != nil {
		return nil, err
	}

	text, err := tr.Transform(ctx, action, c.Snippet, transform.Options{Style: input.Style, Target: input.Target})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.NewProviderUnavailable("transformer", 0, nil)
	}

	badges := []string{action.Badge()}
	return applyPatch(ctx, st, c.ID, card.Patch{Snippet: &text, Badges: &badges})
}

func applyPatch(ctx context.Context, st *store.Store, id string, patch card.Patch) (*UpdateOutput, error) {
	updated, err := st.UpdateCard(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, errors.NewNotFound("card", id)
	}
	return &UpdateOutput{Card: updated}, nil
}
