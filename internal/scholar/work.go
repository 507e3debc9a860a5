// Package scholar talks to the bibliographic providers (OpenAlex first,
// Crossref as fallback) and normalizes their responses into one Work shape.
package scholar

import (
	"strings"

	"github.com/tabscribe/tabscribe/internal/card"
)

// Work is a normalized bibliographic record. Every provider produces the same shape.
type Work struct {
	Title        string    `json:"title,omitempty"`
	URL          string    `json:"url,omitempty"`
	DOI          string    `json:"doi,omitempty"`
	Authors      []Author  `json:"authors"`
	Year         int       `json:"year,omitempty"`
	Venue        string    `json:"venue,omitempty"`
	ExternalID   string    `json:"external_id,omitempty"`
	CitedByCount int       `json:"cited_by_count"`
	Concepts     []Concept `json:"concepts"`
	Abstract     string    `json:"abstract,omitempty"`

	// ReferencedWorks holds the provider ids of works this one cites.
	// Only OpenAlex supplies it.
	ReferencedWorks []string `json:"referenced_works,omitempty"`
}

// Author is a normalized author name.
type Author struct {
	Full   string `json:"full"`
	Family string `json:"family,omitempty"`
	Given  string `json:"given,omitempty"`
}

// Concept is a topic tag attached to a work by the provider.
type Concept struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Query is what the resolver knows about a card.
type Query struct {
	DOI   string
	Title string
}

// QueryFor builds a resolver query from a card.
func QueryFor(c *card.Card) Query {
	return Query{DOI: card.NormalizeDOI(c.DOI), Title: strings.TrimSpace(c.Title)}
}

// IsEmpty reports whether the query has nothing to resolve.
func (q Query) IsEmpty() bool {
	return q.DOI == "" && q.Title == ""
}

// Key identifies a work for de-duplication: external id, then DOI, then title.
func (w *Work) Key() string {
	switch {
	case w.ExternalID != "":
		return "id:" + ShortID(w.ExternalID)
	case w.DOI != "":
		return "doi:" + strings.ToLower(w.DOI)
	case w.Title != "":
		return "title:" + strings.ToLower(card.Normalize(w.Title))
	}
	return ""
}

// ShortID strips an OpenAlex URL id ("https://openalex.org/W123") to "W123".
func ShortID(id string) string {
	id = strings.TrimRight(strings.TrimSpace(id), "/")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// splitName derives family and given names from a display name:
// the last word is the family name.
func splitName(full string) Author {
	full = strings.Join(strings.Fields(full), " ")
	a := Author{Full: full}
	if full == "" {
		return a
	}
	if i := strings.LastIndex(full, " "); i >= 0 {
		a.Given = full[:i]
		a.Family = full[i+1:]
	} else {
		a.Family = full
	}
	return a
}
