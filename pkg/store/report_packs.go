package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/caseforge/caseforge/pkg/models"
)

// ============================================
// REPORT PACK OPERATIONS
// ============================================

func (s *GORMStore) CreateReportPack(ctx context.Context, pack *models.ReportPack) (string, error) {
	if pack.ID == "" {
		pack.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(pack).Error; err != nil {
		return "", err
	}
	return pack.ID, nil
}

func (s *GORMStore) GetReportPack(ctx context.Context, id string) (*models.ReportPack, error) {
	return getByField[models.ReportPack](s.db, ctx, "id", id, models.ErrReportPackNotFound)
}

func (s *GORMStore) ListReportPacks(ctx context.Context) ([]*models.ReportPack, error) {
	return listAll[models.ReportPack](s.db, ctx, "created_at DESC")
}
