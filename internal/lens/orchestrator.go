package lens

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/tabscribe/tabscribe/internal/card"
	"github.com/tabscribe/tabscribe/internal/errors"
	"github.com/tabscribe/tabscribe/internal/scholar"
	"github.com/tabscribe/tabscribe/internal/similarity"
)

// State is a step of a lens computation.
type State string

const (
	Idle      State = "idle"
	Resolving State = "resolving"
	Expanding State = "expanding"
	Scoring   State = "scoring"
	Done      State = "done"
	Cached    State = "cached"
	Error     State = "error"
)

// Resolver maps a query to a base work, or nil.
type Resolver interface {
	Resolve(ctx context.Context, q scholar.Query) *scholar.Work
}

// Expander fetches the neighbourhood of a base work.
type Expander interface {
	Expand(ctx context.Context, base *scholar.Work) *scholar.Expansion
}

// Ranker orders a candidate pool against a center work.
type Ranker interface {
	Rank(center *scholar.Work, pool []*scholar.Work) []similarity.ScoredWork
}

// Result is what Lens and Refresh return.
type Result struct {
	Key     string   `json:"key"`
	State   State    `json:"state"`
	SavedAt int64    `json:"saved_at"`
	Payload *Payload `json:"payload"`
}

// Orchestrator runs Resolving -> Expanding -> Scoring and caches the result.
type Orchestrator struct {
	cache    *Cache
	resolver Resolver
	expander Expander
	ranker   Ranker
	online   func(ctx context.Context) bool
	onState  func(key string, s State)
	log      *zap.SugaredLogger
	group    singleflight.Group
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithOnline sets the check deciding whether providers may be called.
// When it reports false, cache hits are still served and misses fail with OFFLINE.
func WithOnline(fn func(ctx context.Context) bool) Option {
	return func(o *Orchestrator) { o.online = fn }
}

// WithStateHook receives every state transition.
func WithStateHook(fn func(key string, s State)) Option {
	return func(o *Orchestrator) { o.onState = fn }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// New creates an Orchestrator.
func New(cache *Cache, resolver Resolver, expander Expander, ranker Ranker, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cache:    cache,
		resolver: resolver,
		expander: expander,
		ranker:   ranker,
		online:   func(context.Context) bool { return true },
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Key returns the cache key of c: its DOI, else its URL.
func Key(c *card.Card) string {
	return c.NaturalKey()
}

// Lens returns the cached payload when it is still valid, computing and
// caching it otherwise.
func (o *Orchestrator) Lens(ctx context.Context, c *card.Card) (*Result, error) {
	return o.run(ctx, c, false)
}

// Refresh recomputes the payload, ignoring the cache, and overwrites the
// cache entry on success.
func (o *Orchestrator) Refresh(ctx context.Context, c *card.Card) (*Result, error) {
	return o.run(ctx, c, true)
}

// Peek returns the valid cached result for c without computing anything.
// Returns nil, nil on a miss.
func (o *Orchestrator) Peek(ctx context.Context, c *card.Card) (*Result, error) {
	key := Key(c)
	if key == "" {
		return nil, nil
	}
	p, savedAt, ok, err := o.cache.Get(ctx, key)
	if err != nil || !ok {
		return nil, err
	}
	return &Result{Key: key, State: Cached, SavedAt: savedAt, Payload: p}, nil
}

func (o *Orchestrator) run(ctx context.Context, c *card.Card, refresh bool) (*Result, error) {
	if c == nil {
		return nil, errors.NewInvalidRequest("card is required")
	}
	q := scholar.QueryFor(c)
	key := Key(c)
	if key == "" && q.IsEmpty() {
		return nil, errors.NewInvalidRequest("card has no DOI, URL or title to look up")
	}
	o.transition(key, Idle)

	if !refresh && key != "" {
		res, err := o.Peek(ctx, c)
		if err != nil {
			return nil, err
		}
		if res != nil {
			o.transition(key, Cached)
			return res, nil
		}
	}

	if !o.online(ctx) {
		return nil, errors.NewOffline()
	}

	flightKey := key
	if flightKey == "" {
		flightKey = "title:" + q.Title
	}
	// The shared computation outlives any single caller; provider calls are
	// bounded by the HTTP client timeout.
	ch := o.group.DoChan(flightKey, func() (any, error) {
		return o.compute(context.WithoutCancel(ctx), key, q)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Result), nil
	}
}

func (o *Orchestrator) compute(ctx context.Context, key string, q scholar.Query) (*Result, error) {
	o.transition(key, Resolving)
	base := o.resolver.Resolve(ctx, q)
	if base == nil {
		o.transition(key, Error)
		return nil, errors.NewUnresolved(key)
	}

	o.transition(key, Expanding)
	exp := o.expander.Expand(ctx, base)

	o.transition(key, Scoring)
	payload := &Payload{
		Base:    base,
		Refs:    exp.Refs,
		Cited:   exp.Cited,
		Similar: o.ranker.Rank(base, similarity.Pool(base, exp.Refs, exp.Cited)),
	}

	res := &Result{Key: key, State: Done, Payload: payload}
	if key != "" {
		savedAt, err := o.cache.Put(ctx, key, payload)
		if err != nil {
			return nil, err
		}
		res.SavedAt = savedAt
	}
	o.log.Debugw("lens computed", "key", key, "refs", len(exp.Refs), "cited", len(exp.Cited))
	o.transition(key, Done)
	return res, nil
}

func (o *Orchestrator) transition(key string, s State) {
	if o.onState != nil {
		o.onState(key, s)
	}
}
