package service

import (
	"context"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pigweb/pigweb/internal/domain"
)

// PigSearcher is the slice of the record store the duplicate detector needs.
type PigSearcher interface {
	SearchByName(ctx context.Context, name string, limit, offset int) ([]domain.Pig, error)
}

// DuplicateDetector answers "which existing records resemble this name".
// The store query provides recall (token and substring matching); the
// detector then orders the result by fuzzy edit distance so the closest
// candidates come first, with store order breaking ties.
type DuplicateDetector struct {
	searcher PigSearcher
	limit    int
}

// NewDuplicateDetector creates a detector over the given searcher.
// Parameters:
//   - searcher: record store query interface.
//   - limit: maximum matches returned per query.
// Returns:
//   - *DuplicateDetector: initialized detector.
func NewDuplicateDetector(searcher PigSearcher, limit int) *DuplicateDetector {
	if limit <= 0 {
		limit = 10
	}
	return &DuplicateDetector{searcher: searcher, limit: limit}
}

// FindSimilar returns up to the configured limit of records resembling the
// candidate, most similar first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - name: candidate name.
// Returns:
//   - []domain.Pig: ranked matches, possibly empty.
//   - error: non-nil if the store query fails.
func (d *DuplicateDetector) FindSimilar(ctx context.Context, name string) ([]domain.Pig, error) {
	matches, err := d.searcher.SearchByName(ctx, name, d.limit, 0)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		pig  domain.Pig
		rank int
	}
	rs := make([]ranked, len(matches))
	for i, m := range matches {
		rs[i] = ranked{pig: m, rank: fuzzy.RankMatchNormalizedFold(name, m.Name)}
	}
	sort.SliceStable(rs, func(i, j int) bool {
		return rankBetter(rs[i].rank, rs[j].rank)
	})

	out := make([]domain.Pig, len(rs))
	for i, r := range rs {
		out[i] = r.pig
	}
	return out, nil
}

// rankBetter orders fuzzy ranks: lower distance wins, non-matches (-1) sink
// to the bottom.
func rankBetter(a, b int) bool {
	if a < 0 {
		return false
	}
	if b < 0 {
		return true
	}
	return a < b
}
