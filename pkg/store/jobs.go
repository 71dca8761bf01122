package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/caseforge/caseforge/pkg/models"
)

// maxJobErrorLen bounds the persisted failure message.
const maxJobErrorLen = 2000

// ============================================
// INGEST JOB OPERATIONS
// ============================================

func (s *GORMStore) CreateIngestJob(ctx context.Context, job *models.IngestJob) (int64, error) {
	if job.Status == "" {
		job.Status = models.JobStatusQueued
	}
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return 0, err
	}
	return job.ID, nil
}

func (s *GORMStore) GetIngestJob(ctx context.Context, id int64) (*models.IngestJob, error) {
	return getByField[models.IngestJob](s.db, ctx, "id", id, models.ErrJobNotFound)
}

func (s *GORMStore) ListIngestJobs(ctx context.Context, status models.JobStatus, limit, offset int) ([]*models.IngestJob, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var jobs []*models.IngestJob
	if err := q.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// LeaseQueuedJob claims the oldest queued job. The conditional status
// transition is the lease primitive: with multiple workers only one UPDATE
// wins; losers retry on the next candidate.
func (s *GORMStore) LeaseQueuedJob(ctx context.Context) (*models.IngestJob, error) {
	for {
		var job models.IngestJob
		err := s.db.WithContext(ctx).
			Where("status = ?", models.JobStatusQueued).
			Order("created_at ASC").
			First(&job).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.ErrNoQueuedJob
			}
			return nil, err
		}

		result := s.db.WithContext(ctx).Model(&models.IngestJob{}).
			Where("id = ? AND status = ?", job.ID, models.JobStatusQueued).
			Updates(map[string]any{
				"status":     models.JobStatusRunning,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 1 {
			job.Status = models.JobStatusRunning
			return &job, nil
		}
		// Lost the race for this job; try the next queued one.
	}
}

// UpdateJobProgress writes the progress map; the updated_at bump doubles as
// the worker heartbeat.
func (s *GORMStore) UpdateJobProgress(ctx context.Context, id int64, progress models.JSONMap) error {
	result := s.db.WithContext(ctx).Model(&models.IngestJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"progress":   progress,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrJobNotFound
	}
	return nil
}

func (s *GORMStore) CompleteJob(ctx context.Context, id int64, stats models.JSONMap) error {
	return s.finishJob(ctx, id, models.JobStatusCompleted, map[string]any{"stats": stats})
}

func (s *GORMStore) FailJob(ctx context.Context, id int64, errText string) error {
	if len(errText) > maxJobErrorLen {
		errText = errText[:maxJobErrorLen]
	}
	return s.finishJob(ctx, id, models.JobStatusFailed, map[string]any{"error_text": errText})
}

func (s *GORMStore) finishJob(ctx context.Context, id int64, status models.JobStatus, extra map[string]any) error {
	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}
	result := s.db.WithContext(ctx).Model(&models.IngestJob{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrJobNotFound
	}
	return nil
}

// ReclaimStaleJobs re-queues running jobs whose heartbeat stopped. Safe to
// call from every worker iteration.
func (s *GORMStore) ReclaimStaleJobs(ctx context.Context, grace time.Duration) (int64, error) {
	cutoff := time.Now().Add(-grace)
	result := s.db.WithContext(ctx).Model(&models.IngestJob{}).
		Where("status = ? AND updated_at < ?", models.JobStatusRunning, cutoff).
		Updates(map[string]any{
			"status":     models.JobStatusQueued,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}
