package store

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/caseforge/caseforge/pkg/models"
)

// ============================================
// UNKNOWN SIGNATURE OPERATIONS
// ============================================

// ReplaceUnknownSignatures persists the job's top-N unparsed line signatures
// by count, replacing any earlier aggregation for the same job so re-runs
// stay idempotent.
func (s *GORMStore) ReplaceUnknownSignatures(ctx context.Context, jobID int64, counts map[string]int64, topN int) error {
	type entry struct {
		signature string
		count     int64
	}
	entries := make([]entry, 0, len(counts))
	for sig, n := range counts {
		entries = append(entries, entry{signature: sig, count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].signature < entries[j].signature
	})
	if topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	if err := tx.Where("ingest_job_id = ?", jobID).Delete(&models.UnknownSignature{}).Error; err != nil {
		return err
	}
	for _, e := range entries {
		sig := e.signature
		if len(sig) > 400 {
			sig = sig[:400]
		}
		row := &models.UnknownSignature{
			ID:          uuid.New().String(),
			IngestJobID: jobID,
			Signature:   sig,
			Count:       e.count,
		}
		if err := tx.Create(row).Error; err != nil {
			return err
		}
	}
	return tx.Commit().Error
}

func (s *GORMStore) ListUnknownSignatures(ctx context.Context, jobID int64) ([]*models.UnknownSignature, error) {
	var sigs []*models.UnknownSignature
	err := s.db.WithContext(ctx).
		Where("ingest_job_id = ?", jobID).
		Order("count DESC, signature ASC").
		Find(&sigs).Error
	if err != nil {
		return nil, err
	}
	return sigs, nil
}
