package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pigweb/pigweb/internal/domain"
	"gorm.io/gorm"
)

// BulkImportRepository owns the persisted bulk_imports rows. All writes go
// through Create and Update; Update enforces the revision check that keeps
// concurrent patches from clobbering each other.
type BulkImportRepository struct {
	db *gorm.DB
}

// NewBulkImportRepository creates a new BulkImportRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *BulkImportRepository: repository instance bound to db.
func NewBulkImportRepository(db *gorm.DB) *BulkImportRepository {
	return &BulkImportRepository{db: db}
}

// Create inserts a new import as a single row write.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - imp: import to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *BulkImportRepository) Create(ctx context.Context, imp *domain.BulkImport) error {
	return r.db.WithContext(ctx).Create(imp).Error
}

// GetByID retrieves an import by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: import ID.
// Returns:
//   - *domain.BulkImport: import if found.
//   - error: domain.ErrNotFound if absent, otherwise the query error.
func (r *BulkImportRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.BulkImport, error) {
	var imp domain.BulkImport
	if err := r.db.WithContext(ctx).First(&imp, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &imp, nil
}

// Update writes the import back, guarded by its revision: the row is only
// touched when the stored revision still matches the one the import was
// loaded with, and the revision is bumped in the same statement. A lost
// race returns domain.ErrConflict and leaves imp's revision unchanged so
// the caller can reload and retry.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - imp: import with updated buckets; Revision must be the loaded value.
// Returns:
//   - error: domain.ErrConflict on a lost revision race, otherwise any
//     write error.
func (r *BulkImportRepository) Update(ctx context.Context, imp *domain.BulkImport) error {
	prev := imp.Revision
	imp.Revision = prev + 1

	res := r.db.WithContext(ctx).
		Model(&domain.BulkImport{}).
		Where("id = ? AND revision = ?", imp.ID, prev).
		Select("*").
		Updates(imp)
	if res.Error != nil {
		imp.Revision = prev
		return res.Error
	}
	if res.RowsAffected == 0 {
		imp.Revision = prev
		return domain.ErrConflict
	}
	return nil
}

// Fetch lists imports matching the filter, ordered by start time. Empty ID
// and creator lists mean no constraint on that column.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - filter: parsed query filter; Limit of 0 means no cap.
// Returns:
//   - []domain.BulkImport: matching imports.
//   - error: non-nil if the query fails.
func (r *BulkImportRepository) Fetch(ctx context.Context, filter domain.BulkFilter) ([]domain.BulkImport, error) {
	q := r.db.WithContext(ctx).Model(&domain.BulkImport{})

	if len(filter.IDs) > 0 {
		q = q.Where("id IN ?", filter.IDs)
	}
	if len(filter.Creators) > 0 {
		q = q.Where("creator IN ?", filter.Creators)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var imports []domain.BulkImport
	if err := q.Order("started ASC").Find(&imports).Error; err != nil {
		return nil, err
	}
	return imports, nil
}
