package ops

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tabscribe/tabscribe/internal/errors"
	"github.com/tabscribe/tabscribe/internal/store"
)

// maxOlderThanDays bounds the age filter. Longer ages match no card.
const maxOlderThanDays = 100_000

// PurgeInput contains parameters for the Purge operation.
// With ID set, that one card is hard-deleted immediately whatever its state.
// Otherwise the trash is emptied, optionally filtered.
type PurgeInput struct {
	ID            string
	ProjectID     *string // optional filter by project
	OlderThanDays *int    // optional, only purge if deleted_at < (now - N days)
}

// PurgeOutput contains the result of the Purge operation.
type PurgeOutput struct {
	Purged  int    `json:"purged"`
	Message string `json:"message"`
}

// Purge permanently deletes cards.
func Purge(ctx context.Context, st *store.Store, input PurgeInput) (*PurgeOutput, error) {
	if input.OlderThanDays != nil && *input.OlderThanDays < 0 {
		return nil, errors.NewInvalidRequest("older_than_days must be non-negative")
	}
	if input.ID != "" {
		c, err := requireCard(ctx, st, input.ID, true)
		if err != nil {
			return nil, err
		}
		deleted, err := st.DeleteCard(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		count := 0
		if deleted {
			count = 1
		}
		return &PurgeOutput{Purged: count, Message: formatPurgeMessage(count, nil, nil)}, nil
	}

	projectID := ""
	if input.ProjectID != nil {
		if _, err := requireProject(ctx, st, *input.ProjectID); err != nil {
			return nil, err
		}
		projectID = *input.ProjectID
	}

	cutoff := int64(math.MaxInt64)
	if input.OlderThanDays != nil {
		cutoff = olderThanCutoff(st.NowMillis(), *input.OlderThanDays)
	}

	trash, err := st.GetTrash(ctx, projectID)
	if err != nil {
		return nil, err
	}
	count := 0
	for _, c := range trash {
		if *c.DeletedAt >= cutoff {
			continue
		}
		// Cards restored since the listing are skipped.
		deleted, err := st.PurgeExpired(ctx, c.ID, cutoff)
		if err != nil {
			return nil, err
		}
		if deleted {
			count++
		}
	}

	return &PurgeOutput{
		Purged:  count,
		Message: formatPurgeMessage(count, input.ProjectID, input.OlderThanDays),
	}, nil
}

// olderThanCutoff returns the deleted_at bound for cards trashed more than
// days before nowMillis.
func olderThanCutoff(nowMillis int64, days int) int64 {
	if days > maxOlderThanDays {
		return math.MinInt64
	}
	return time.UnixMilli(nowMillis).UTC().AddDate(0, 0, -days).UnixMilli()
}

// formatPurgeMessage creates a human-readable message for the purge result.
func formatPurgeMessage(count int, projectID *string, olderThanDays *int) string {
	if count == 0 {
		return "No cards to purge"
	}

	msg := fmt.Sprintf("Permanently deleted %d %s", count, plural(count, "card"))

	if projectID != nil {
		msg += fmt.Sprintf(" from project %q", *projectID)
	}

	if olderThanDays != nil {
		msg += fmt.Sprintf(" (deleted more than %d days ago)", *olderThanDays)
	}

	return msg
}

// Sweeper purges trash past its retention window.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Sweep runs one retention sweep now.
func Sweep(ctx context.Context, sw Sweeper) (*PurgeOutput, error) {
	count, err := sw.Sweep(ctx)
	if err != nil {
		return nil, err
	}
	msg := "No expired cards in the trash"
	if count > 0 {
		msg = fmt.Sprintf("Permanently deleted %d expired %s", count, plural(count, "card"))
	}
	return &PurgeOutput{Purged: count, Message: msg}, nil
}
