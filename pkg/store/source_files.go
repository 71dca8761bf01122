package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/caseforge/caseforge/pkg/models"
)

// ============================================
// SOURCE FILE OPERATIONS
// ============================================

// CreateSourceFile interns a content-addressed source file. The digest is the
// identity: if a row with the same sha256 already exists it is returned
// untouched, making upload finalization replay-safe.
func (s *GORMStore) CreateSourceFile(ctx context.Context, file *models.SourceFile) (*models.SourceFile, error) {
	if existing, err := s.GetSourceFileBySHA256(ctx, file.SHA256); err == nil {
		return existing, nil
	} else if err != models.ErrSourceFileNotFound {
		return nil, err
	}

	if file.ID == "" {
		file.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(file).Error; err != nil {
		if isUniqueConstraintError(err) {
			// Lost the race to a concurrent finalize with the same content.
			return s.GetSourceFileBySHA256(ctx, file.SHA256)
		}
		return nil, err
	}
	return file, nil
}

func (s *GORMStore) GetSourceFile(ctx context.Context, id string) (*models.SourceFile, error) {
	return getByField[models.SourceFile](s.db, ctx, "id", id, models.ErrSourceFileNotFound)
}

func (s *GORMStore) GetSourceFileBySHA256(ctx context.Context, digest string) (*models.SourceFile, error) {
	return getByField[models.SourceFile](s.db, ctx, "sha256", digest, models.ErrSourceFileNotFound)
}

func (s *GORMStore) ListSourceFiles(ctx context.Context) ([]*models.SourceFile, error) {
	return listAll[models.SourceFile](s.db, ctx, "created_at DESC")
}
