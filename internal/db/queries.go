package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/tabscribe/tabscribe/internal/card"
	"github.com/tabscribe/tabscribe/internal/errors"
)

// cardColumns is the column list shared by every card SELECT.
const cardColumns = `
	id, created_at, title, url, favicon, snippet,
	tags_json, badges_json, doi, project_id, deleted_at, evidence_json
`

// DeletedFilter selects cards by trash state.
type DeletedFilter int

const (
	OnlyActive DeletedFilter = iota
	OnlyDeleted
	AnyDeleted
)

// CardFilter narrows ListCards.
type CardFilter struct {
	ProjectID *string
	Deleted   DeletedFilter
}

// PutCard inserts a card or fully replaces the card with the same id.
func PutCard(ctx context.Context, q Querier, c *card.Card) error {
	tagsJSON, err := marshalStrings(c.Tags)
	if err != nil {
		return errors.NewInternal(err)
	}
	badgesJSON, err := marshalStrings(c.Badges)
	if err != nil {
		return errors.NewInternal(err)
	}
	var evidenceJSON sql.NullString
	if c.Evidence != nil {
		data, err := json.Marshal(c.Evidence)
		if err != nil {
			return errors.NewInternal(err)
		}
		evidenceJSON = sql.NullString{String: string(data), Valid: true}
	}

	projectID := c.ProjectID
	if projectID == "" {
		projectID = card.DefaultProjectID
	}

	query := `
		INSERT INTO cards (
			id, created_at, title, url, favicon, snippet,
			tags_json, badges_json, doi, project_id, deleted_at, evidence_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at    = excluded.created_at,
			title         = excluded.title,
			url           = excluded.url,
			favicon       = excluded.favicon,
			snippet       = excluded.snippet,
			tags_json     = excluded.tags_json,
			badges_json   = excluded.badges_json,
			doi           = excluded.doi,
			project_id    = excluded.project_id,
			deleted_at    = excluded.deleted_at,
			evidence_json = excluded.evidence_json
	`

	_, err = q.ExecContext(ctx, query,
		c.ID, c.CreatedAt, toNullString(c.Title), toNullString(c.URL), toNullString(c.Favicon), c.Snippet,
		tagsJSON, badgesJSON, toNullString(c.DOI), projectID, toNullInt64(c.DeletedAt), evidenceJSON,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetCard retrieves a card by id regardless of trash state.
// Returns nil, nil when no card has that id.
func GetCard(ctx context.Context, q Querier, id string) (*card.Card, error) {
	row := q.QueryRowContext(ctx, "SELECT "+cardColumns+" FROM cards WHERE id = ?", id)
	c, err := scanCard(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return c, nil
}

// ListCards returns cards matching the filter, newest first.
func ListCards(ctx context.Context, q Querier, f CardFilter) ([]*card.Card, error) {
	var (
		where []string
		args  []any
	)
	if f.ProjectID != nil {
		where = append(where, "project_id = ?")
		args = append(args, *f.ProjectID)
	}
	switch f.Deleted {
	case OnlyActive:
		where = append(where, "deleted_at IS NULL")
	case OnlyDeleted:
		where = append(where, "deleted_at IS NOT NULL")
	}

	query := "SELECT " + cardColumns + " FROM cards"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var cards []*card.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return cards, nil
}

// SetDeletedAt sets or clears deleted_at. Returns false if the card does not exist.
func SetDeletedAt(ctx context.Context, q Querier, id string, deletedAt *int64) (bool, error) {
	result, err := q.ExecContext(ctx, "UPDATE cards SET deleted_at = ? WHERE id = ?", toNullInt64(deletedAt), id)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return affected(result)
}

// DeleteCard permanently removes a card. Returns false if it did not exist.
func DeleteCard(ctx context.Context, q Querier, id string) (bool, error) {
	result, err := q.ExecContext(ctx, "DELETE FROM cards WHERE id = ?", id)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return affected(result)
}

// DeleteCardsByProject permanently removes every card owned by a project.
func DeleteCardsByProject(ctx context.Context, q Querier, projectID string) (int, error) {
	result, err := q.ExecContext(ctx, "DELETE FROM cards WHERE project_id = ?", projectID)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

// ListDeletedBefore returns ids of soft-deleted cards with deleted_at < cutoff.
func ListDeletedBefore(ctx context.Context, q Querier, cutoff int64) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id FROM cards WHERE deleted_at IS NOT NULL AND deleted_at < ? ORDER BY deleted_at",
		cutoff,
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewInternal(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return ids, nil
}

// DeleteIfDeletedBefore permanently removes a card only if it is still
// soft-deleted with deleted_at < cutoff at the moment of the delete.
// A card restored after it was listed is left alone.
func DeleteIfDeletedBefore(ctx context.Context, q Querier, id string, cutoff int64) (bool, error) {
	result, err := q.ExecContext(ctx,
		"DELETE FROM cards WHERE id = ? AND deleted_at IS NOT NULL AND deleted_at < ?",
		id, cutoff,
	)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return affected(result)
}

// MaxCreatedAt returns the largest created_at in the store, or 0 when empty.
func MaxCreatedAt(ctx context.Context, q Querier) (int64, error) {
	var max sql.NullInt64
	if err := q.QueryRowContext(ctx, "SELECT MAX(created_at) FROM cards").Scan(&max); err != nil {
		return 0, errors.NewInternal(err)
	}
	return max.Int64, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanCard scans a single row into a Card struct.
func scanCard(row rowScanner) (*card.Card, error) {
	var (
		c            card.Card
		title        sql.NullString
		url          sql.NullString
		favicon      sql.NullString
		tagsJSON     sql.NullString
		badgesJSON   sql.NullString
		doi          sql.NullString
		deletedAt    sql.NullInt64
		evidenceJSON sql.NullString
	)

	err := row.Scan(
		&c.ID, &c.CreatedAt, &title, &url, &favicon, &c.Snippet,
		&tagsJSON, &badgesJSON, &doi, &c.ProjectID, &deletedAt, &evidenceJSON,
	)
	if err != nil {
		return nil, err
	}

	c.Title = title.String
	c.URL = url.String
	c.Favicon = favicon.String
	c.DOI = doi.String

	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Int64
	}

	if c.Tags, err = unmarshalStrings(tagsJSON); err != nil {
		return nil, err
	}
	if c.Badges, err = unmarshalStrings(badgesJSON); err != nil {
		return nil, err
	}

	if evidenceJSON.Valid && evidenceJSON.String != "" {
		var e card.Evidence
		if err := json.Unmarshal([]byte(evidenceJSON.String), &e); err != nil {
			return nil, err
		}
		c.Evidence = &e
	}

	return &c, nil
}

// marshalStrings encodes a string slice as JSON, NULL when empty.
func marshalStrings(values []string) (sql.NullString, error) {
	if len(values) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalStrings decodes a JSON string slice; NULL decodes to an empty slice.
func unmarshalStrings(ns sql.NullString) ([]string, error) {
	out := []string{}
	if !ns.Valid || ns.String == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// affected reports whether a statement touched at least one row.
func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return n > 0, nil
}

// toNullString converts an empty string to NULL.
func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// toNullInt64 converts a *int64 to sql.NullInt64.
func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
