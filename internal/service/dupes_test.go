package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pigweb/pigweb/internal/domain"
)

type stubSearcher struct {
	results []domain.Pig
	err     error
	queries []string
}

func (s *stubSearcher) SearchByName(ctx context.Context, name string, limit, offset int) ([]domain.Pig, error) {
	s.queries = append(s.queries, name)
	if s.err != nil {
		return nil, s.err
	}
	if limit > 0 && len(s.results) > limit {
		return s.results[:limit], nil
	}
	return s.results, nil
}

func pigNamed(name string) domain.Pig {
	return domain.Pig{ID: uuid.New(), Name: name}
}

func TestFindSimilarRanksClosestFirst(t *testing.T) {
	searcher := &stubSearcher{results: []domain.Pig{
		pigNamed("Wilbur the Second"),
		pigNamed("Wilbur"),
		pigNamed("Wilburette"),
	}}
	detector := NewDuplicateDetector(searcher, 10)

	matches, err := detector.FindSimilar(context.Background(), "Wilbur")
	if err != nil {
		t.Fatalf("FindSimilar() error: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}
	if matches[0].Name != "Wilbur" {
		t.Errorf("best match = %q, want exact name first", matches[0].Name)
	}
}

func TestFindSimilarKeepsStoreOrderOnTies(t *testing.T) {
	first := pigNamed("Hamlet")
	second := pigNamed("Hamlet")
	searcher := &stubSearcher{results: []domain.Pig{first, second}}
	detector := NewDuplicateDetector(searcher, 10)

	matches, err := detector.FindSimilar(context.Background(), "Hamlet")
	if err != nil {
		t.Fatalf("FindSimilar() error: %v", err)
	}
	if matches[0].ID != first.ID || matches[1].ID != second.ID {
		t.Error("equal-rank matches should keep store order")
	}
}

func TestFindSimilarPropagatesError(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("db down")}
	detector := NewDuplicateDetector(searcher, 10)

	if _, err := detector.FindSimilar(context.Background(), "Wilbur"); err == nil {
		t.Error("expected error from failed store query")
	}
}

func TestRankBetter(t *testing.T) {
	testCases := []struct {
		name string
		a, b int
		want bool
	}{
		{name: "lower distance wins", a: 1, b: 5, want: true},
		{name: "higher distance loses", a: 5, b: 1, want: false},
		{name: "non-match sinks", a: -1, b: 9, want: false},
		{name: "match beats non-match", a: 9, b: -1, want: true},
		{name: "equal ranks keep order", a: 3, b: 3, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := rankBetter(tc.a, tc.b); got != tc.want {
				t.Errorf("rankBetter(%d, %d) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
