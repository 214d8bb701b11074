package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/pigweb/pigweb/internal/domain"
	"github.com/pigweb/pigweb/internal/logger"
	"github.com/pigweb/pigweb/internal/storage"
)

// BulkReader is the read-only slice of the import store the archiver needs.
type BulkReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.BulkImport, error)
}

// ArchiveService exports finished imports to object storage as JSON
// snapshots. Unfinished imports are refused; an archive of a half-resolved
// batch would go stale on the next patch.
type ArchiveService struct {
	imports BulkReader
	store   storage.ObjectStorage
	prefix  string
	log     *logger.Logger
}

// NewArchiveService creates a new archive service.
// Parameters:
//   - imports: import store read interface.
//   - store: object storage sink.
//   - prefix: key prefix for archived objects.
//   - log: logger instance.
// Returns:
//   - *ArchiveService: initialized service.
func NewArchiveService(imports BulkReader, store storage.ObjectStorage, prefix string, log *logger.Logger) *ArchiveService {
	if prefix == "" {
		prefix = "archives"
	}
	return &ArchiveService{imports: imports, store: store, prefix: prefix, log: log}
}

// Archive uploads the finished import as a JSON object and returns its
// storage key and URL.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: import to archive.
// Returns:
//   - key: object key the snapshot was stored under.
//   - url: retrieval URL for the object.
//   - error: domain.ErrNotFound for a missing import, domain.ErrNotFinished
//     for one with pending names, otherwise the upload error.
func (s *ArchiveService) Archive(ctx context.Context, id uuid.UUID) (key, url string, err error) {
	imp, err := s.imports.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	if !imp.IsFinished() {
		return "", "", domain.ErrNotFinished
	}

	body, err := json.MarshalIndent(imp, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("failed to encode import %s: %w", id, err)
	}

	key = fmt.Sprintf("%s/%s.json", s.prefix, imp.ID)
	if err := s.store.Upload(ctx, key, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return "", "", err
	}

	logger.FromContext(ctx).WithField(logger.FieldImportID, imp.ID.String()).
		Infof("Archived bulk import to %s", key)
	return key, s.store.GetURL(key), nil
}
