package store

import (
	"context"

	"github.com/caseforge/caseforge/pkg/models"
)

// ============================================
// RAW BLOCK OPERATIONS
// ============================================

func (s *GORMStore) CreateRawBlock(ctx context.Context, block *models.RawBlock) error {
	if block.Codec == "" {
		block.Codec = models.RawBlockCodec
	}
	return s.db.WithContext(ctx).Create(block).Error
}

func (s *GORMStore) GetRawBlock(ctx context.Context, id string) (*models.RawBlock, error) {
	return getByField[models.RawBlock](s.db, ctx, "id", id, models.ErrRawBlockNotFound)
}
