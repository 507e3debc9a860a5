package scholar

import (
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/tabscribe/tabscribe/internal/card"
)

// DefaultCrossrefURL is the public Crossref API.
const DefaultCrossrefURL = "https://api.crossref.org"

// Crossref is the secondary provider. It has no citation graph.
type Crossref struct {
	client
}

// NewCrossref creates a Crossref client. An empty baseURL uses the public API.
func NewCrossref(baseURL string, opts ...ClientOption) *Crossref {
	if baseURL == "" {
		baseURL = DefaultCrossrefURL
	}
	return &Crossref{client: newClient("crossref", baseURL, opts)}
}

// firstString decodes a JSON value that is either a string or an array of
// strings, keeping the first element.
type firstString string

func (f *firstString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = firstString(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	if len(list) > 0 {
		*f = firstString(list[0])
	} else {
		*f = ""
	}
	return nil
}

type crossrefWork struct {
	DOI            string      `json:"DOI"`
	URL            string      `json:"URL"`
	Title          firstString `json:"title"`
	ContainerTitle firstString `json:"container-title"`
	Author         []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
		Name   string `json:"name"`
	} `json:"author"`
	Issued struct {
		DateParts [][]*int `json:"date-parts"`
	} `json:"issued"`
	IsReferencedByCount int      `json:"is-referenced-by-count"`
	Abstract            string   `json:"abstract"`
	Subject             []string `json:"subject"`
}

type crossrefWorkResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefListResponse struct {
	Message struct {
		Items []crossrefWork `json:"items"`
	} `json:"message"`
}

// WorkByDOI fetches /works/{doi}.
func (c *Crossref) WorkByDOI(ctx context.Context, doi string) (*Work, error) {
	var raw crossrefWorkResponse
	if err := c.getJSON(ctx, "/works/"+url.PathEscape(doi), nil, &raw); err != nil {
		return nil, err
	}
	return normalizeCrossref(&raw.Message), nil
}

// SearchTitle returns the top query.title hit, or nil when there is none.
func (c *Crossref) SearchTitle(ctx context.Context, title string) (*Work, error) {
	works, err := c.SearchTitles(ctx, title, 1)
	if err != nil || len(works) == 0 {
		return nil, err
	}
	return works[0], nil
}

// SearchTitles runs a query.title search.
func (c *Crossref) SearchTitles(ctx context.Context, title string, rows int) ([]*Work, error) {
	q := url.Values{}
	q.Set("query.title", title)
	q.Set("rows", strconv.Itoa(rows))
	return c.list(ctx, q)
}

// Search runs a free-text bibliographic query.
func (c *Crossref) Search(ctx context.Context, text string, rows int) ([]*Work, error) {
	q := url.Values{}
	q.Set("query", text)
	q.Set("rows", strconv.Itoa(rows))
	return c.list(ctx, q)
}

func (c *Crossref) list(ctx context.Context, q url.Values) ([]*Work, error) {
	var raw crossrefListResponse
	if err := c.getJSON(ctx, "/works", q, &raw); err != nil {
		return nil, err
	}
	works := make([]*Work, 0, len(raw.Message.Items))
	for i := range raw.Message.Items {
		works = append(works, normalizeCrossref(&raw.Message.Items[i]))
	}
	return works, nil
}

var jatsTagRegex = regexp.MustCompile(`<[^>]+>`)

func normalizeCrossref(w *crossrefWork) *Work {
	out := &Work{
		Title:        strings.TrimSpace(string(w.Title)),
		URL:          w.URL,
		DOI:          card.NormalizeDOI(w.DOI),
		Venue:        strings.TrimSpace(string(w.ContainerTitle)),
		CitedByCount: w.IsReferencedByCount,
		Authors:      []Author{},
		Concepts:     []Concept{},
	}

	for _, a := range w.Author {
		full := strings.TrimSpace(a.Given + " " + a.Family)
		if full == "" {
			full = strings.TrimSpace(a.Name)
		}
		if full == "" {
			continue
		}
		out.Authors = append(out.Authors, Author{Full: full, Family: a.Family, Given: a.Given})
	}

	if len(w.Issued.DateParts) > 0 && len(w.Issued.DateParts[0]) > 0 && w.Issued.DateParts[0][0] != nil {
		out.Year = *w.Issued.DateParts[0][0]
	}

	if w.Abstract != "" {
		out.Abstract = strings.Join(strings.Fields(jatsTagRegex.ReplaceAllString(w.Abstract, " ")), " ")
	}

	for _, s := range w.Subject {
		name := strings.TrimSpace(s)
		if name == "" {
			continue
		}
		out.Concepts = append(out.Concepts, Concept{ID: "subject:" + card.Normalize(name), Name: name})
	}
	return out
}
