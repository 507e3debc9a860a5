// Package similarity ranks candidate works against a center work by concept
// overlap, lexical overlap and recency.
package similarity

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/tabscribe/tabscribe/internal/scholar"
)

// Score weights. Changing them changes every ranking.
const (
	ConceptWeight = 0.6
	LexicalWeight = 0.4
	RecencyWeight = 0.05

	// MaxTokens caps the tokens taken from one work's title and abstract.
	MaxTokens = 200

	// RecencyWindowYears is how far back recency falls from 1 to 0.
	RecencyWindowYears = 10
)

var tokenRegex = regexp.MustCompile(`[a-z0-9]+`)

// ScoredWork is a Work with its similarity to the center.
type ScoredWork struct {
	scholar.Work
	Score float64 `json:"score"`
}

// Jaccard returns |a∩b| / |a∪b|, or 0 when both sets are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	union := len(a)
	inter := 0
	for k := range b {
		if _, ok := a[k]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Overlap returns |a∩b| / min(|a|,|b|), or 0 when either set is empty.
func Overlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	inter := 0
	for k := range small {
		if _, ok := large[k]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(small))
}

// Tokens returns the set of the first MaxTokens lowercase alphanumeric
// tokens longer than three characters in title and abstract.
func Tokens(w *scholar.Work) map[string]struct{} {
	set := make(map[string]struct{})
	if w == nil {
		return set
	}
	text := strings.ToLower(w.Title + " " + w.Abstract)
	count := 0
	for _, tok := range tokenRegex.FindAllString(text, -1) {
		if len(tok) <= 3 {
			continue
		}
		if count == MaxTokens {
			break
		}
		count++
		set[tok] = struct{}{}
	}
	return set
}

// Concepts returns the set of concept ids attached to w.
func Concepts(w *scholar.Work) map[string]struct{} {
	set := make(map[string]struct{})
	if w == nil {
		return set
	}
	for _, c := range w.Concepts {
		if c.ID != "" {
			set[c.ID] = struct{}{}
		}
	}
	return set
}

// Recency rises linearly from 0 at currentYear-10 to 1 at currentYear,
// clamped to [0,1]. Undated works score 0.
func Recency(year, currentYear int) float64 {
	if year <= 0 {
		return 0
	}
	r := float64(year-(currentYear-RecencyWindowYears)) / RecencyWindowYears
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}

// Scorer ranks candidate pools.
type Scorer struct {
	now func() time.Time
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithClock fixes the clock that defines the current year.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// New creates a Scorer.
func New(opts ...Option) *Scorer {
	s := &Scorer{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes 0.6*concept + 0.4*lexical + 0.05*recency for one candidate.
func (s *Scorer) Score(center, candidate *scholar.Work) float64 {
	return s.score(Concepts(center), Tokens(center), candidate, s.now().Year())
}

func (s *Scorer) score(centerConcepts, centerTokens map[string]struct{}, candidate *scholar.Work, year int) float64 {
	concept := Jaccard(centerConcepts, Concepts(candidate))
	lexical := Overlap(centerTokens, Tokens(candidate))
	return ConceptWeight*concept + LexicalWeight*lexical + RecencyWeight*Recency(candidate.Year, year)
}

// Rank scores every candidate and sorts by descending score. Candidates
// with equal scores keep their pool order.
func (s *Scorer) Rank(center *scholar.Work, pool []*scholar.Work) []ScoredWork {
	concepts := Concepts(center)
	tokens := Tokens(center)
	year := s.now().Year()

	out := make([]ScoredWork, 0, len(pool))
	for _, w := range pool {
		if w == nil {
			continue
		}
		out = append(out, ScoredWork{Work: *w, Score: s.score(concepts, tokens, w, year)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Pool merges candidate groups in order, dropping duplicates and the center itself.
func Pool(center *scholar.Work, groups ...[]*scholar.Work) []*scholar.Work {
	seen := make(map[string]bool)
	if center != nil {
		if k := center.Key(); k != "" {
			seen[k] = true
		}
		if center.DOI != "" {
			seen["doi:"+strings.ToLower(center.DOI)] = true
		}
	}

	var out []*scholar.Work
	for _, group := range groups {
		for _, w := range group {
			if w == nil {
				continue
			}
			k := w.Key()
			doiKey := ""
			if w.DOI != "" {
				doiKey = "doi:" + strings.ToLower(w.DOI)
			}
			if (k != "" && seen[k]) || (doiKey != "" && seen[doiKey]) {
				continue
			}
			if k != "" {
				seen[k] = true
			}
			if doiKey != "" {
				seen[doiKey] = true
			}
			out = append(out, w)
		}
	}
	return out
}
