package scholar

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/tabscribe/tabscribe/internal/card"
)

// DefaultOpenAlexURL is the public OpenAlex API.
const DefaultOpenAlexURL = "https://api.openalex.org"

// OpenAlex is the primary provider. It is also the citation graph used by the Expander.
type OpenAlex struct {
	client
}

// NewOpenAlex creates an OpenAlex client. An empty baseURL uses the public API.
func NewOpenAlex(baseURL string, opts ...ClientOption) *OpenAlex {
	if baseURL == "" {
		baseURL = DefaultOpenAlexURL
	}
	return &OpenAlex{client: newClient("openalex", baseURL, opts)}
}

type openAlexWork struct {
	ID              string `json:"id"`
	DOI             string `json:"doi"`
	Title           string `json:"title"`
	DisplayName     string `json:"display_name"`
	PublicationYear int    `json:"publication_year"`
	CitedByCount    int    `json:"cited_by_count"`
	IDs             struct {
		DOI string `json:"doi"`
	} `json:"ids"`
	Authorships []struct {
		Author struct {
			DisplayName string `json:"display_name"`
		} `json:"author"`
		RawAuthorName string `json:"raw_author_name"`
	} `json:"authorships"`
	PrimaryLocation *struct {
		LandingPageURL string `json:"landing_page_url"`
		Source         *struct {
			DisplayName string `json:"display_name"`
		} `json:"source"`
	} `json:"primary_location"`
	HostVenue *struct {
		DisplayName string `json:"display_name"`
		URL         string `json:"url"`
	} `json:"host_venue"`
	Concepts []struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"concepts"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	ReferencedWorks       []string         `json:"referenced_works"`
}

type openAlexList struct {
	Results []openAlexWork `json:"results"`
}

// WorkByDOI fetches /works/doi:{doi}.
func (c *OpenAlex) WorkByDOI(ctx context.Context, doi string) (*Work, error) {
	var raw openAlexWork
	if err := c.getJSON(ctx, "/works/doi:"+url.PathEscape(doi), nil, &raw); err != nil {
		return nil, err
	}
	return normalizeOpenAlex(&raw), nil
}

// SearchTitle returns the top search hit for title, or nil when there is none.
func (c *OpenAlex) SearchTitle(ctx context.Context, title string) (*Work, error) {
	works, err := c.Search(ctx, title, 1)
	if err != nil || len(works) == 0 {
		return nil, err
	}
	return works[0], nil
}

// Search runs a free-text work search.
func (c *OpenAlex) Search(ctx context.Context, text string, limit int) ([]*Work, error) {
	q := url.Values{}
	q.Set("search", text)
	q.Set("per-page", strconv.Itoa(limit))
	return c.list(ctx, q)
}

// WorkByID fetches a single work by its OpenAlex id (short or URL form).
func (c *OpenAlex) WorkByID(ctx context.Context, id string) (*Work, error) {
	var raw openAlexWork
	if err := c.getJSON(ctx, "/works/"+url.PathEscape(ShortID(id)), nil, &raw); err != nil {
		return nil, err
	}
	return normalizeOpenAlex(&raw), nil
}

// Citing lists works that cite id, newest and most cited first.
func (c *OpenAlex) Citing(ctx context.Context, id string, limit int) ([]*Work, error) {
	q := url.Values{}
	q.Set("filter", "cites:"+ShortID(id))
	q.Set("sort", "publication_year:desc,cited_by_count:desc")
	q.Set("per-page", strconv.Itoa(limit))
	return c.list(ctx, q)
}

// Related lists works OpenAlex considers related to id.
func (c *OpenAlex) Related(ctx context.Context, id string, limit int) ([]*Work, error) {
	q := url.Values{}
	q.Set("filter", "related_to:"+ShortID(id))
	q.Set("per-page", strconv.Itoa(limit))
	return c.list(ctx, q)
}

func (c *OpenAlex) list(ctx context.Context, q url.Values) ([]*Work, error) {
	var raw openAlexList
	if err := c.getJSON(ctx, "/works", q, &raw); err != nil {
		return nil, err
	}
	works := make([]*Work, 0, len(raw.Results))
	for i := range raw.Results {
		works = append(works, normalizeOpenAlex(&raw.Results[i]))
	}
	return works, nil
}

func normalizeOpenAlex(w *openAlexWork) *Work {
	out := &Work{
		Title:           w.Title,
		Year:            w.PublicationYear,
		ExternalID:      w.ID,
		CitedByCount:    w.CitedByCount,
		Authors:         []Author{},
		Concepts:        []Concept{},
		ReferencedWorks: w.ReferencedWorks,
		Abstract:        rebuildAbstract(w.AbstractInvertedIndex),
	}
	if out.Title == "" {
		out.Title = w.DisplayName
	}

	doi := w.IDs.DOI
	if doi == "" {
		doi = w.DOI
	}
	out.DOI = card.NormalizeDOI(doi)

	for _, a := range w.Authorships {
		name := a.Author.DisplayName
		if name == "" {
			name = a.RawAuthorName
		}
		if name == "" {
			continue
		}
		out.Authors = append(out.Authors, splitName(name))
	}

	switch {
	case w.HostVenue != nil && w.HostVenue.URL != "":
		out.URL = w.HostVenue.URL
	case w.PrimaryLocation != nil && w.PrimaryLocation.LandingPageURL != "":
		out.URL = w.PrimaryLocation.LandingPageURL
	case doi != "":
		out.URL = doi
	}

	switch {
	case w.HostVenue != nil && w.HostVenue.DisplayName != "":
		out.Venue = w.HostVenue.DisplayName
	case w.PrimaryLocation != nil && w.PrimaryLocation.Source != nil:
		out.Venue = w.PrimaryLocation.Source.DisplayName
	}

	for _, c := range w.Concepts {
		if c.ID == "" {
			continue
		}
		out.Concepts = append(out.Concepts, Concept{ID: ShortID(c.ID), Name: c.DisplayName})
	}
	return out
}

// rebuildAbstract turns OpenAlex's word -> positions index back into text.
func rebuildAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}
	type placed struct {
		pos  int
		word string
	}
	var words []placed
	for word, positions := range index {
		for _, p := range positions {
			words = append(words, placed{pos: p, word: word})
		}
	}
	sort.Slice(words, func(i, j int) bool { return words[i].pos < words[j].pos })

	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.word
	}
	return strings.Join(parts, " ")
}
