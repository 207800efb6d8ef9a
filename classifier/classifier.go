// Package classifier defines the text-classification collaborator whose
// results the analyze API caches, plus an HTTP client for a remote
// inference endpoint.
package classifier

import (
	"context"
	"sort"
)

// Label is one predicted class and its confidence.
type Label struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Result is the labels predicted for one input text.
type Result []Label

// Top returns the highest scoring label.
func (r Result) Top() (Label, bool) {
	if len(r) == 0 {
		return Label{}, false
	}
	best := r[0]
	for _, l := range r[1:] {
		if l.Score > best.Score {
			best = l
		}
	}
	return best, true
}

// Sorted returns a copy of r ordered by descending score.
func (r Result) Sorted() Result {
	out := make(Result, len(r))
	copy(out, r)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Classifier computes labels for a text. Implementations may be slow and may
// fail; callers decide what to cache.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// Func adapts a function to the Classifier interface.
type Func func(ctx context.Context, text string) (Result, error)

// Classify calls f(ctx, text).
func (f Func) Classify(ctx context.Context, text string) (Result, error) {
	return f(ctx, text)
}
