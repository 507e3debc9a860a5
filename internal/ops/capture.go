package ops

import (
	"context"
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tabscribe/tabscribe/internal/card"
	"github.com/tabscribe/tabscribe/internal/errors"
	"github.com/tabscribe/tabscribe/internal/settings"
	"github.com/tabscribe/tabscribe/internal/store"
)

// CaptureInput contains parameters for the Capture operation.
type CaptureInput struct {
	Title     string
	URL       string
	Favicon   string
	Snippet   string // required
	Tags      []string
	DOI       string         // optional; extracted from snippet, URL or title when empty
	ProjectID string         // optional, defaults to the current project
	Evidence  *card.Evidence // optional
}

// CaptureOutput contains the result of the Capture operation.
type CaptureOutput struct {
	Card *card.Card `json:"card"`
}

// Capture stores a new card. Its createdAt never goes below the newest
// existing card so capture order survives clock skew.
func Capture(ctx context.Context, st *store.Store, set *settings.Settings, input CaptureInput) (*CaptureOutput, error) {
	snippet := strings.TrimSpace(input.Snippet)
	if snippet == "" {
		return nil, errors.NewInvalidRequest("snippet is required")
	}
	if input.Evidence != nil {
		switch input.Evidence.Kind {
		case "html", "image", "audio":
		default:
			return nil, errors.NewInvalidRequest("evidence kind must be html, image or audio")
		}
	}

	projectID, err := resolveProject(ctx, st, set, input.ProjectID)
	if err != nil {
		return nil, err
	}

	latest, err := st.LatestCreatedAt(ctx)
	if err != nil {
		return nil, err
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	doi := card.NormalizeDOI(input.DOI)
	if doi == "" {
		doi = card.ExtractDOI(snippet, input.URL, input.Title)
	}

	c := &card.Card{
		ID:        id,
		CreatedAt: max(st.NowMillis(), latest),
		Title:     strings.TrimSpace(input.Title),
		URL:       strings.TrimSpace(input.URL),
		Favicon:   strings.TrimSpace(input.Favicon),
		Snippet:   snippet,
		Tags:      card.NormalizeTags(input.Tags),
		Badges:    []string{},
		DOI:       doi,
		ProjectID: projectID,
		Evidence:  input.Evidence,
	}
	if err := st.PutCard(ctx, c); err != nil {
		return nil, err
	}
	return &CaptureOutput{Card: c}, nil
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
