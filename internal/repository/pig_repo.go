package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/pigweb/pigweb/internal/domain"
	"gorm.io/gorm"
)

// PigRepository handles canonical record operations.
type PigRepository struct {
	db *gorm.DB
}

// NewPigRepository creates a new PigRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *PigRepository: repository instance bound to db.
func NewPigRepository(db *gorm.DB) *PigRepository {
	return &PigRepository{db: db}
}

// Create inserts a new record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - pig: record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *PigRepository) Create(ctx context.Context, pig *domain.Pig) error {
	return r.db.WithContext(ctx).Create(pig).Error
}

// GetByID retrieves a record by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: record ID.
// Returns:
//   - *domain.Pig: record if found.
//   - error: domain.ErrNotFound if absent, otherwise the query error.
func (r *PigRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Pig, error) {
	var pig domain.Pig
	if err := r.db.WithContext(ctx).First(&pig, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &pig, nil
}

// GetByIDs retrieves records by a list of IDs.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - ids: list of record IDs.
// Returns:
//   - []domain.Pig: matching records.
//   - error: non-nil if the query fails.
func (r *PigRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Pig, error) {
	if len(ids) == 0 {
		return []domain.Pig{}, nil
	}
	var pigs []domain.Pig
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&pigs).Error; err != nil {
		return nil, err
	}
	return pigs, nil
}

// SearchByName finds records whose name resembles the candidate: either
// every whitespace token of the candidate appears in the name, or the whole
// candidate is a case-insensitive substring of it. The two conditions are
// OR-ed in one query; this overmatches on purpose, recall beats precision
// here since an operator resolves the ambiguity.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - name: candidate name to match against.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []domain.Pig: matching records in creation order.
//   - error: non-nil if the query fails.
func (r *PigRepository) SearchByName(ctx context.Context, name string, limit, offset int) ([]domain.Pig, error) {
	lowered := strings.ToLower(name)

	cond := r.db.Where("LOWER(name) LIKE ?", "%"+lowered+"%")
	if tokens := strings.Fields(lowered); len(tokens) > 1 {
		tok := r.db.Where("LOWER(name) LIKE ?", "%"+tokens[0]+"%")
		for _, t := range tokens[1:] {
			tok = tok.Where("LOWER(name) LIKE ?", "%"+t+"%")
		}
		cond = cond.Or(tok)
	}

	var pigs []domain.Pig
	if err := r.db.WithContext(ctx).
		Where(cond).
		Order("created ASC").
		Limit(limit).
		Offset(offset).
		Find(&pigs).Error; err != nil {
		return nil, err
	}
	return pigs, nil
}
