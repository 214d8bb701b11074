package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pigweb/pigweb/internal/domain"
	"github.com/pigweb/pigweb/internal/logger"
)

// PigStore is the slice of the record store the pipeline writes through.
type PigStore interface {
	Create(ctx context.Context, pig *domain.Pig) error
}

// BulkStore persists bulk imports. Update must fail with
// domain.ErrConflict when the row changed since it was loaded.
type BulkStore interface {
	Create(ctx context.Context, imp *domain.BulkImport) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.BulkImport, error)
	Update(ctx context.Context, imp *domain.BulkImport) error
	Fetch(ctx context.Context, filter domain.BulkFilter) ([]domain.BulkImport, error)
}

// patchRetries bounds revision-conflict retries. Patches are idempotent,
// so replaying one against a reloaded row is always safe.
const patchRetries = 3

// BulkConfig holds configuration for the bulk service.
type BulkConfig struct {
	// ResponseLimit caps Fetch results when the filter gives no limit.
	ResponseLimit int
}

// BulkService implements the import creation pipeline, the patch engine,
// and import queries.
type BulkService struct {
	pigs          PigStore
	imports       BulkStore
	detector      *DuplicateDetector
	log           *logger.Logger
	responseLimit int
}

// NewBulkService creates a new bulk service.
// Parameters:
//   - pigs: record store used to create accepted records.
//   - imports: import store.
//   - detector: duplicate detector for classification.
//   - log: logger instance.
//   - cfg: service configuration settings.
// Returns:
//   - *BulkService: initialized service.
func NewBulkService(pigs PigStore, imports BulkStore, detector *DuplicateDetector, log *logger.Logger, cfg *BulkConfig) *BulkService {
	limit := 50
	if cfg != nil && cfg.ResponseLimit > 0 {
		limit = cfg.ResponseLimit
	}
	return &BulkService{
		pigs:          pigs,
		imports:       imports,
		detector:      detector,
		log:           log,
		responseLimit: limit,
	}
}

// CreateImport runs the whole batch of raw names through classification and
// persists the resulting import as one row.
//
// Per name: normalize, skip names already classified in this batch, then
// ask the detector. No matches (or a detector error) means the name is new:
// create the record right away and put its ID in accepted, or put the name
// in pending when the create fails — one bad name never aborts the batch.
// A single case-insensitive exact match is a confirmed duplicate and lands
// in rejected. Anything else is ambiguous and lands in pending for the
// operator.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - creator: operator starting the batch.
//   - names: raw name strings as pasted.
// Returns:
//   - *domain.BulkImport: the persisted import.
//   - error: non-nil only when the final write fails; nothing is persisted
//     partially in that case (records created per-name remain, the batch
//     row does not).
func (s *BulkService) CreateImport(ctx context.Context, creator uuid.UUID, names []string) (*domain.BulkImport, error) {
	started := time.Now().UTC()

	var displayName string
	var pending domain.StringList
	var accepted domain.UUIDList
	var rejected domain.StringList

	// Names already classified in this batch, whatever bucket they went
	// to. Checking all three keeps one raw name from ever occupying two
	// buckets.
	seen := make(map[string]struct{})

	for _, input := range names {
		name := NormalizeName(input)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}

		matches, err := s.detector.FindSimilar(ctx, name)
		switch {
		case err != nil || len(matches) == 0:
			if err != nil {
				logger.CtxWarn(ctx, "Duplicate query failed for %q, trying direct create: %v", name, err)
			}
			pig := domain.NewPig(name, creator)
			if cerr := s.pigs.Create(ctx, &pig); cerr != nil {
				logger.CtxWarn(ctx, "Create failed for %q, deferring to pending: %v", name, cerr)
				pending = append(pending, name)
			} else {
				accepted = append(accepted, pig.ID)
			}
		case len(matches) == 1 && strings.EqualFold(matches[0].Name, name):
			// exact duplicate, nothing to create
			rejected = append(rejected, name)
		default:
			// ambiguous, the operator decides
			pending = append(pending, name)
		}

		seen[name] = struct{}{}
		if displayName == "" {
			displayName = name
		}
	}

	imp := &domain.BulkImport{
		ID:       uuid.New(),
		Name:     displayName,
		Creator:  creator,
		Started:  started,
		Pending:  pending,
		Accepted: accepted,
		Rejected: rejected,
	}
	imp.RecomputeFinished(time.Now().UTC())

	if err := s.imports.Create(ctx, imp); err != nil {
		return nil, fmt.Errorf("failed to save bulk import: %w", err)
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldImportID: imp.ID.String(),
		logger.FieldCount:    len(names),
	}).Infof("Bulk import created: pending=%d accepted=%d rejected=%d", len(pending), len(accepted), len(rejected))

	return imp, nil
}

// Patch applies the actions to the addressed import and writes it back.
// Action lists run in bucket order pending, accepted, rejected; finished is
// recomputed from the resulting pending bucket. On a revision conflict the
// whole load-apply-store cycle is retried against the fresh row.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - patch: actions addressed to one import.
// Returns:
//   - *domain.BulkImport: the import after the patch was applied.
//   - error: domain.ErrNotFound when the import does not exist,
//     domain.ErrConflict when retries ran out, otherwise the write error;
//     in every error case the stored row is untouched by this call.
func (s *BulkService) Patch(ctx context.Context, patch *domain.BulkPatch) (*domain.BulkImport, error) {
	for attempt := 0; attempt < patchRetries; attempt++ {
		imp, err := s.imports.GetByID(ctx, patch.ID)
		if err != nil {
			return nil, err
		}

		patch.ApplyTo(imp)
		imp.RecomputeFinished(time.Now().UTC())

		err = s.imports.Update(ctx, imp)
		if err == nil {
			logger.FromContext(ctx).WithField(logger.FieldImportID, imp.ID.String()).
				Infof("Bulk import patched: pending=%d accepted=%d rejected=%d finished=%v",
					len(imp.Pending), len(imp.Accepted), len(imp.Rejected), imp.IsFinished())
			return imp, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		logger.CtxWarn(ctx, "Revision conflict patching import %s, retrying", patch.ID)
	}
	return nil, domain.ErrConflict
}

// Fetch lists imports matching the filter, applying the default response
// limit when the caller gave none.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - filter: parsed query filter.
// Returns:
//   - []domain.BulkImport: matching imports.
//   - error: non-nil if the query fails.
func (s *BulkService) Fetch(ctx context.Context, filter domain.BulkFilter) ([]domain.BulkImport, error) {
	if filter.Limit <= 0 {
		filter.Limit = s.responseLimit
	}
	return s.imports.Fetch(ctx, filter)
}
