package scholar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabscribe/tabscribe/internal/errors"
)

// fakeProvider serves canned JSON bodies keyed by request path.
// List endpoints are keyed by path plus the value of keyParam.
type fakeProvider struct {
	t        *testing.T
	keyParam string

	mu       sync.Mutex
	bodies   map[string]string
	requests []*http.Request
}

func newFakeProvider(t *testing.T, keyParam string) (*fakeProvider, *httptest.Server) {
	f := &fakeProvider{t: t, keyParam: keyParam, bodies: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeProvider) on(key, body string) {
	f.mu.Lock()
	f.bodies[key] = body
	f.mu.Unlock()
}

func (f *fakeProvider) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r)
	key := r.URL.Path
	if f.keyParam != "" && r.URL.Query().Get(f.keyParam) != "" {
		key += "?" + r.URL.Query().Get(f.keyParam)
	}
	body, ok := f.bodies[key]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if body == "500" {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func (f *fakeProvider) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeProvider) last() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

const openAlexPaper = `{
	"id": "https://openalex.org/W100",
	"doi": "https://doi.org/10.1000/base",
	"title": "Graph Neural Networks for Citation Analysis",
	"publication_year": 2021,
	"cited_by_count": 42,
	"ids": {"doi": "https://doi.org/10.1000/base"},
	"authorships": [
		{"author": {"display_name": "Ada  Lovelace"}},
		{"author": {"display_name": "Turing"}},
		{"author": {}, "raw_author_name": "Grace B. Hopper"}
	],
	"primary_location": {
		"landing_page_url": "https://journal.example/base",
		"source": {"display_name": "Journal of Graphs"}
	},
	"concepts": [
		{"id": "https://openalex.org/C1", "display_name": "Graph theory"},
		{"id": "https://openalex.org/C2", "display_name": "Citation"}
	],
	"abstract_inverted_index": {"graphs": [1], "We": [0], "study": [2]},
	"referenced_works": ["https://openalex.org/W1", "https://openalex.org/W2"]
}`

func TestOpenAlex_WorkByDOI_Normalizes(t *testing.T) {
	fake, srv := newFakeProvider(t, "")
	fake.on("/works/doi:10.1000/base", openAlexPaper)

	c := NewOpenAlex(srv.URL, WithMailto("lab@example.org"))
	w, err := c.WorkByDOI(context.Background(), "10.1000/base")
	require.NoError(t, err)
	require.NotNil(t, w)

	assert.Equal(t, "Graph Neural Networks for Citation Analysis", w.Title)
	assert.Equal(t, "10.1000/base", w.DOI)
	assert.Equal(t, 2021, w.Year)
	assert.Equal(t, 42, w.CitedByCount)
	assert.Equal(t, "Journal of Graphs", w.Venue)
	assert.Equal(t, "https://journal.example/base", w.URL)
	assert.Equal(t, "https://openalex.org/W100", w.ExternalID)
	assert.Equal(t, "We graphs study", w.Abstract)
	assert.Equal(t, []Concept{{ID: "C1", Name: "Graph theory"}, {ID: "C2", Name: "Citation"}}, w.Concepts)
	assert.Equal(t, []Author{
		{Full: "Ada Lovelace", Family: "Lovelace", Given: "Ada"},
		{Full: "Turing", Family: "Turing"},
		{Full: "Grace B. Hopper", Family: "Hopper", Given: "Grace B."},
	}, w.Authors)
	assert.Len(t, w.ReferencedWorks, 2)

	assert.Equal(t, "lab@example.org", fake.last().URL.Query().Get("mailto"))
}

func TestOpenAlex_Citing_Query(t *testing.T) {
	fake, srv := newFakeProvider(t, "filter")
	fake.on("/works?cites:W100", `{"results": [{"id": "https://openalex.org/W7", "title": "Later work"}]}`)

	works, err := NewOpenAlex(srv.URL).Citing(context.Background(), "https://openalex.org/W100", 20)
	require.NoError(t, err)
	require.Len(t, works, 1)
	assert.Equal(t, "Later work", works[0].Title)

	q := fake.last().URL.Query()
	assert.Equal(t, "publication_year:desc,cited_by_count:desc", q.Get("sort"))
	assert.Equal(t, "20", q.Get("per-page"))
}

func TestOpenAlex_StatusError(t *testing.T) {
	fake, srv := newFakeProvider(t, "")
	fake.on("/works/doi:10.1000/x", "500")

	_, err := NewOpenAlex(srv.URL).WorkByDOI(context.Background(), "10.1000/x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrProviderUnavailable))
}

func TestOpenAlex_SearchTitle_NoResults(t *testing.T) {
	fake, srv := newFakeProvider(t, "search")
	fake.on("/works?nothing here", `{"results": []}`)

	w, err := NewOpenAlex(srv.URL).SearchTitle(context.Background(), "nothing here")
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestCrossref_Normalizes(t *testing.T) {
	fake, srv := newFakeProvider(t, "")
	fake.on("/works/10.1000/cr", `{"message": {
		"DOI": "10.1000/CR",
		"URL": "https://doi.org/10.1000/CR",
		"title": ["Crossref Title", "Alt"],
		"container-title": "Proceedings of Things",
		"author": [{"given": "Barbara", "family": "Liskov"}, {"name": "The Consortium"}],
		"issued": {"date-parts": [[2019, 4]]},
		"is-referenced-by-count": 7,
		"abstract": "<jats:p>Abstract   text</jats:p>",
		"subject": ["Computer Science"]
	}}`)

	w, err := NewCrossref(srv.URL).WorkByDOI(context.Background(), "10.1000/cr")
	require.NoError(t, err)
	assert.Equal(t, "Crossref Title", w.Title)
	assert.Equal(t, "Proceedings of Things", w.Venue)
	assert.Equal(t, "10.1000/CR", w.DOI)
	assert.Equal(t, 2019, w.Year)
	assert.Equal(t, 7, w.CitedByCount)
	assert.Equal(t, "Abstract text", w.Abstract)
	assert.Equal(t, []Author{
		{Full: "Barbara Liskov", Family: "Liskov", Given: "Barbara"},
		{Full: "The Consortium"},
	}, w.Authors)
	assert.Equal(t, []Concept{{ID: "subject:computer science", Name: "Computer Science"}}, w.Concepts)
}

func TestCrossref_MissingYear(t *testing.T) {
	fake, srv := newFakeProvider(t, "query.title")
	fake.on("/works?Some title", `{"message": {"items": [{"title": "Some title", "container-title": ["Venue A"], "issued": {"date-parts": [[null]]}}]}}`)

	w, err := NewCrossref(srv.URL).SearchTitle(context.Background(), "Some title")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Zero(t, w.Year)
	assert.Equal(t, "Venue A", w.Venue)
}

func newResolver(t *testing.T) (*fakeProvider, *fakeProvider, *Resolver) {
	oaFake, oaSrv := newFakeProvider(t, "search")
	crFake, crSrv := newFakeProvider(t, "query.title")
	return oaFake, crFake, NewResolver(NewOpenAlex(oaSrv.URL), NewCrossref(crSrv.URL), nil)
}

func TestResolver_PrimaryDOIFirst(t *testing.T) {
	oa, cr, r := newResolver(t)
	oa.on("/works/doi:10.1000/base", openAlexPaper)

	w := r.Resolve(context.Background(), Query{DOI: "10.1000/base", Title: "ignored"})
	require.NotNil(t, w)
	assert.Equal(t, "https://openalex.org/W100", w.ExternalID)
	assert.Equal(t, 1, oa.count())
	assert.Zero(t, cr.count())
}

func TestResolver_FallsThroughInOrder(t *testing.T) {
	oa, cr, r := newResolver(t)
	oa.on("/works/doi:10.1000/x", "500")
	oa.on("/works?A Title", `{"results": []}`)
	cr.on("/works/10.1000/x", "500")
	cr.on("/works?A Title", `{"message": {"items": [{"title": ["A Title"], "DOI": "10.1000/x"}]}}`)

	w := r.Resolve(context.Background(), Query{DOI: "10.1000/x", Title: "A Title"})
	require.NotNil(t, w)
	assert.Equal(t, "A Title", w.Title)
	assert.Equal(t, 2, oa.count())
	assert.Equal(t, 2, cr.count())
}

func TestResolver_AllFail(t *testing.T) {
	_, _, r := newResolver(t)
	assert.Nil(t, r.Resolve(context.Background(), Query{DOI: "10.1000/none", Title: "Nothing"}))
}

func TestResolver_EmptyQuery(t *testing.T) {
	oa, cr, r := newResolver(t)
	assert.Nil(t, r.Resolve(context.Background(), Query{}))
	assert.Zero(t, oa.count())
	assert.Zero(t, cr.count())
}

func TestResolver_TitleOnlySkipsDOISteps(t *testing.T) {
	oa, _, r := newResolver(t)
	oa.on("/works?Only Title", `{"results": [{"id": "W5", "title": "Only Title"}]}`)

	w := r.Resolve(context.Background(), Query{Title: "Only Title"})
	require.NotNil(t, w)
	assert.Equal(t, 1, oa.count())
	assert.True(t, strings.HasPrefix(oa.last().URL.Path, "/works"))
}

func TestExpander_BoundsAndSkipsFailures(t *testing.T) {
	fake, srv := newFakeProvider(t, "filter")
	base := &Work{ExternalID: "https://openalex.org/W100"}
	for i := 1; i <= 25; i++ {
		id := fmt.Sprintf("W%d", i)
		base.ReferencedWorks = append(base.ReferencedWorks, "https://openalex.org/"+id)
		if i == 3 {
			continue // not served: 404
		}
		fake.on("/works/"+id, fmt.Sprintf(`{"id": "https://openalex.org/%s", "title": "Ref %d"}`, id, i))
	}
	fake.on("/works?cites:W100", `{"results": [{"id": "W900", "title": "Citer"}]}`)

	exp := NewExpander(NewOpenAlex(srv.URL), 20, nil).Expand(context.Background(), base)
	assert.Len(t, exp.Refs, 19)
	assert.Equal(t, "Ref 1", exp.Refs[0].Title)
	assert.Equal(t, "Ref 20", exp.Refs[18].Title)
	require.Len(t, exp.Cited, 1)
	assert.Equal(t, "Citer", exp.Cited[0].Title)
	assert.Equal(t, 21, fake.count())
}

func TestExpander_CitingFailureYieldsEmpty(t *testing.T) {
	fake, srv := newFakeProvider(t, "filter")
	fake.on("/works?cites:W100", "500")

	exp := NewExpander(NewOpenAlex(srv.URL), 0, nil).Expand(context.Background(), &Work{ExternalID: "W100"})
	assert.NotNil(t, exp.Refs)
	assert.Empty(t, exp.Refs)
	assert.NotNil(t, exp.Cited)
	assert.Empty(t, exp.Cited)
}

func TestFinder_RelatedByDOI(t *testing.T) {
	oaFake, oaSrv := newFakeProvider(t, "filter")
	oaFake.on("/works/doi:10.1000/base", openAlexPaper)
	oaFake.on("/works?related_to:W100", `{"results": [{"id": "W1", "title": "Related one"}, {"id": "W2", "title": "Related two"}]}`)

	works := NewFinder(NewOpenAlex(oaSrv.URL), nil, nil).Similar(context.Background(), Query{DOI: "10.1000/base"}, 2)
	require.Len(t, works, 2)
	assert.Equal(t, "Related one", works[0].Title)
	assert.Equal(t, "2", oaFake.last().URL.Query().Get("per-page"))
}

func TestFinder_FallsBackToCrossrefTitle(t *testing.T) {
	_, oaSrv := newFakeProvider(t, "search")
	crFake, crSrv := newFakeProvider(t, "query.title")
	crFake.on("/works?Lonely", `{"message": {"items": [{"title": "Lonely paper"}]}}`)

	works := NewFinder(NewOpenAlex(oaSrv.URL), NewCrossref(crSrv.URL), nil).Similar(context.Background(), Query{Title: "Lonely"}, 0)
	require.Len(t, works, 1)
	assert.Equal(t, "5", crFake.last().URL.Query().Get("rows"))
}

func TestWork_Key(t *testing.T) {
	assert.Equal(t, "id:W1", (&Work{ExternalID: "https://openalex.org/W1", DOI: "10.1/x"}).Key())
	assert.Equal(t, "doi:10.1/x", (&Work{DOI: "10.1/X"}).Key())
	assert.Equal(t, "title:a title", (&Work{Title: "A  Title"}).Key())
	assert.Equal(t, "", (&Work{}).Key())
}
