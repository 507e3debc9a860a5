package scholar

import (
	"context"

	"go.uber.org/zap"
)

// DefaultPageSize bounds references and citing works per expansion.
const DefaultPageSize = 20

// Graph is a citation graph able to hydrate works by id and list citing works.
type Graph interface {
	WorkByID(ctx context.Context, id string) (*Work, error)
	Citing(ctx context.Context, id string, limit int) ([]*Work, error)
}

// Expansion is the neighbourhood of a base work.
type Expansion struct {
	Refs  []*Work `json:"refs"`
	Cited []*Work `json:"cited"`
}

// Expander fetches the references and citing works of a base work.
type Expander struct {
	graph    Graph
	pageSize int
	log      *zap.SugaredLogger
}

// NewExpander creates an Expander. pageSize <= 0 uses DefaultPageSize.
func NewExpander(graph Graph, pageSize int, log *zap.SugaredLogger) *Expander {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Expander{graph: graph, pageSize: pageSize, log: log}
}

// Expand never fails: a reference that cannot be hydrated is skipped and a
// failed citing query yields an empty list.
func (e *Expander) Expand(ctx context.Context, base *Work) *Expansion {
	out := &Expansion{Refs: []*Work{}, Cited: []*Work{}}
	if base == nil {
		return out
	}

	refs := base.ReferencedWorks
	if len(refs) > e.pageSize {
		refs = refs[:e.pageSize]
	}
	// One request at a time.
	for _, id := range refs {
		if ctx.Err() != nil {
			break
		}
		w, err := e.graph.WorkByID(ctx, id)
		if err != nil {
			e.log.Debugw("skipping reference", "id", id, "error", err)
			continue
		}
		if w != nil {
			out.Refs = append(out.Refs, w)
		}
	}

	if base.ExternalID == "" || ctx.Err() != nil {
		return out
	}
	cited, err := e.graph.Citing(ctx, base.ExternalID, e.pageSize)
	if err != nil {
		e.log.Debugw("citing works unavailable", "id", base.ExternalID, "error", err)
		return out
	}
	for _, w := range cited {
		if w != nil {
			out.Cited = append(out.Cited, w)
		}
	}
	return out
}
