package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pigweb/pigweb/internal/domain"
	"github.com/pigweb/pigweb/internal/logger"
)

// PigReader is the read side of the record store used by queries.
type PigReader interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Pig, error)
}

// PigService exposes the record-store operations the import workflow
// consumes: creating a record when an operator accepts a pending name, and
// the live duplicate search behind the Duplicates panel.
type PigService struct {
	pigs     PigStore
	reader   PigReader
	detector *DuplicateDetector
	log      *logger.Logger
}

// NewPigService creates a new pig service.
// Parameters:
//   - pigs: record store write interface.
//   - reader: record store read interface.
//   - detector: duplicate detector for name queries.
//   - log: logger instance.
// Returns:
//   - *PigService: initialized service.
func NewPigService(pigs PigStore, reader PigReader, detector *DuplicateDetector, log *logger.Logger) *PigService {
	return &PigService{pigs: pigs, reader: reader, detector: detector, log: log}
}

// Create makes a new canonical record with the given name.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - name: record name; normalized before storing.
//   - creator: operator creating the record.
// Returns:
//   - *domain.Pig: the persisted record.
//   - error: non-nil if validation or the write fails.
func (s *PigService) Create(ctx context.Context, name string, creator uuid.UUID) (*domain.Pig, error) {
	name = NormalizeName(name)
	if name == "" {
		return nil, errors.New("name must not be empty")
	}

	pig := domain.NewPig(name, creator)
	if err := s.pigs.Create(ctx, &pig); err != nil {
		return nil, err
	}
	logger.CtxInfo(ctx, "Created pig %s (%s)", pig.Name, pig.ID)
	return &pig, nil
}

// Search resolves a fetch query: a name filter runs through the duplicate
// detector (ranked), an ID list is a direct lookup. Both at once intersect
// on the ID set.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - name: optional name filter; empty means no name constraint.
//   - ids: optional ID filter.
// Returns:
//   - []domain.Pig: matching records.
//   - error: non-nil if a store query fails.
func (s *PigService) Search(ctx context.Context, name string, ids []uuid.UUID) ([]domain.Pig, error) {
	if name != "" {
		matches, err := s.detector.FindSimilar(ctx, name)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return matches, nil
		}
		want := make(map[uuid.UUID]struct{}, len(ids))
		for _, id := range ids {
			want[id] = struct{}{}
		}
		filtered := matches[:0]
		for _, m := range matches {
			if _, ok := want[m.ID]; ok {
				filtered = append(filtered, m)
			}
		}
		return filtered, nil
	}

	return s.reader.GetByIDs(ctx, ids)
}
