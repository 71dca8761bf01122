package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/caseforge/caseforge/pkg/models"
)

// ============================================
// UPLOAD SESSION OPERATIONS
// ============================================

func (s *GORMStore) CreateUploadSession(ctx context.Context, session *models.UploadSession) (string, error) {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.Status == "" {
		session.Status = models.UploadStatusOpen
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return "", err
	}
	return session.ID, nil
}

func (s *GORMStore) GetUploadSession(ctx context.Context, id string) (*models.UploadSession, error) {
	return getByField[models.UploadSession](s.db, ctx, "id", id, models.ErrUploadNotFound)
}

func (s *GORMStore) SaveUploadSession(ctx context.Context, session *models.UploadSession) error {
	result := s.db.WithContext(ctx).Model(&models.UploadSession{}).
		Where("id = ?", session.ID).
		Update("received_chunks", session.ReceivedChunks)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrUploadNotFound
	}
	return nil
}

// FinalizeUploadSession flips the session to FINALIZED with its digest and
// URI. The conditional update makes concurrent finalize calls converge: the
// loser sees zero rows affected and treats the session as already finalized.
func (s *GORMStore) FinalizeUploadSession(ctx context.Context, id, sha256, uri string) error {
	result := s.db.WithContext(ctx).Model(&models.UploadSession{}).
		Where("id = ? AND status = ?", id, models.UploadStatusOpen).
		Updates(map[string]any{
			"status":       models.UploadStatusFinalized,
			"final_sha256": sha256,
			"final_uri":    uri,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either missing or already finalized; let the caller distinguish.
		if _, err := s.GetUploadSession(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
