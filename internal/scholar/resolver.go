package scholar

import (
	"context"

	"go.uber.org/zap"
)

// Source looks up single works by DOI or title.
type Source interface {
	WorkByDOI(ctx context.Context, doi string) (*Work, error)
	SearchTitle(ctx context.Context, title string) (*Work, error)
}

// step is one attempt in a fallback chain.
type step struct {
	name string
	run  func(ctx context.Context) (*Work, error)
}

// firstWork runs steps in order and returns the first non-nil Work.
// A failing step is logged and treated as "no result".
func firstWork(ctx context.Context, log *zap.SugaredLogger, steps ...step) *Work {
	for _, s := range steps {
		if ctx.Err() != nil {
			return nil
		}
		w, err := s.run(ctx)
		if err != nil {
			log.Debugw("lookup failed, trying next", "step", s.name, "error", err)
			continue
		}
		if w != nil {
			return w
		}
	}
	return nil
}

// Resolver maps a DOI and/or title to a canonical Work.
type Resolver struct {
	primary   Source
	secondary Source
	log       *zap.SugaredLogger
}

// NewResolver creates a Resolver trying primary before secondary.
func NewResolver(primary, secondary Source, log *zap.SugaredLogger) *Resolver {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Resolver{primary: primary, secondary: secondary, log: log}
}

// Resolve tries, in order: primary by DOI, primary by title, secondary by
// DOI, secondary by title. Steps whose input is empty are skipped. Returns
// nil when nothing resolves; provider failures never surface.
func (r *Resolver) Resolve(ctx context.Context, q Query) *Work {
	if q.IsEmpty() {
		return nil
	}

	var steps []step
	add := func(name string, input string, fn func(context.Context, string) (*Work, error)) {
		if input == "" {
			return
		}
		steps = append(steps, step{name: name, run: func(ctx context.Context) (*Work, error) {
			return fn(ctx, input)
		}})
	}
	if r.primary != nil {
		add("primary_doi", q.DOI, r.primary.WorkByDOI)
		add("primary_title", q.Title, r.primary.SearchTitle)
	}
	if r.secondary != nil {
		add("secondary_doi", q.DOI, r.secondary.WorkByDOI)
		add("secondary_title", q.Title, r.secondary.SearchTitle)
	}

	w := firstWork(ctx, r.log, steps...)
	if w == nil {
		r.log.Debugw("work unresolved", "doi", q.DOI, "title", q.Title)
	}
	return w
}
