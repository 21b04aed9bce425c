package regions

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mcoot/flippo/internal/model"
)

// DefaultCacheSize bounds the number of memoized (pass, color) extractions
const DefaultCacheSize = 1024

type memoKey struct {
	pass  string
	color model.SquareColor
}

// Analyzer memoizes region extraction per scoring pass and color.
// A pass id must identify exactly one board: reusing it for a different
// board returns the earlier board's regions.
type Analyzer struct {
	cache *lru.Cache[memoKey, Regions]
}

// NewAnalyzer creates an Analyzer holding at most size memoized results
func NewAnalyzer(size int) (*Analyzer, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[memoKey, Regions](size)
	if err != nil {
		return nil, err
	}
	return &Analyzer{cache: cache}, nil
}

// Regions returns the memoized extraction for (pass, filter), computing it on first use
func (a *Analyzer) Regions(board model.Board, pass string, filter model.SquareColor) Regions {
	key := memoKey{pass: pass, color: filter}
	if r, ok := a.cache.Get(key); ok {
		return r
	}
	r := Extract(board, filter)
	a.cache.Add(key, r)
	return r
}

// Forget drops every memoized result of a pass
func (a *Analyzer) Forget(pass string) {
	for _, color := range []model.SquareColor{model.Blank, model.Red, model.Blue, model.Green} {
		a.cache.Remove(memoKey{pass: pass, color: color})
	}
}

// Cached returns the number of memoized extractions
func (a *Analyzer) Cached() int {
	return a.cache.Len()
}
