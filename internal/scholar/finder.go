package scholar

import (
	"context"

	"go.uber.org/zap"
)

// DefaultSimilarLimit is the number of works Similar returns by default.
const DefaultSimilarLimit = 5

// Finder looks up works related to a query without building the full graph.
type Finder struct {
	openalex *OpenAlex
	crossref *Crossref
	log      *zap.SugaredLogger
}

// NewFinder creates a Finder over both providers. Either may be nil.
func NewFinder(openalex *OpenAlex, crossref *Crossref, log *zap.SugaredLogger) *Finder {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Finder{openalex: openalex, crossref: crossref, log: log}
}

// Similar returns up to limit related works. It tries OpenAlex related_to
// on the DOI's work, then an OpenAlex title search, then a Crossref query
// on the DOI's title, then a Crossref title search. The first provider
// response that succeeds is returned, even when it is empty.
func (f *Finder) Similar(ctx context.Context, q Query, limit int) []*Work {
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}

	type attempt struct {
		name string
		run  func() ([]*Work, bool)
	}
	attempts := []attempt{
		{"openalex_related", func() ([]*Work, bool) {
			if f.openalex == nil || q.DOI == "" {
				return nil, false
			}
			base, err := f.openalex.WorkByDOI(ctx, q.DOI)
			if err != nil || base == nil || base.ExternalID == "" {
				return nil, false
			}
			return f.list(f.openalex.Related(ctx, base.ExternalID, limit))
		}},
		{"openalex_search", func() ([]*Work, bool) {
			if f.openalex == nil || q.Title == "" {
				return nil, false
			}
			return f.list(f.openalex.Search(ctx, q.Title, limit))
		}},
		{"crossref_query", func() ([]*Work, bool) {
			if f.crossref == nil || q.DOI == "" {
				return nil, false
			}
			base, err := f.crossref.WorkByDOI(ctx, q.DOI)
			if err != nil || base == nil || base.Title == "" {
				return nil, false
			}
			return f.list(f.crossref.Search(ctx, base.Title, limit))
		}},
		{"crossref_title", func() ([]*Work, bool) {
			if f.crossref == nil || q.Title == "" {
				return nil, false
			}
			return f.list(f.crossref.SearchTitles(ctx, q.Title, limit))
		}},
	}

	for _, a := range attempts {
		if ctx.Err() != nil {
			break
		}
		if works, ok := a.run(); ok {
			return works
		}
		f.log.Debugw("similar lookup yielded nothing", "step", a.name)
	}
	return []*Work{}
}

func (f *Finder) list(works []*Work, err error) ([]*Work, bool) {
	if err != nil {
		f.log.Debugw("similar lookup failed", "error", err)
		return nil, false
	}
	if works == nil {
		works = []*Work{}
	}
	return works, true
}
