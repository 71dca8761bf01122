package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/caseforge/caseforge/pkg/models"
)

// ============================================
// EVENT OPERATIONS
// ============================================

// EnsureEventPartition provisions the monthly partition covering t, or the
// default partition for nil. Partition DDL is a PostgreSQL concern; SQLite
// stores events in a flat table and this is a no-op there.
//
// Creation uses CREATE ... IF NOT EXISTS throughout, so concurrent workers
// racing on the same month are safe.
func (s *GORMStore) EnsureEventPartition(ctx context.Context, t *time.Time) error {
	if s.config.Type != DatabaseTypePostgres {
		return nil
	}
	if t == nil {
		// event_notime is created by the initial migration.
		return nil
	}

	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	name := fmt.Sprintf("event_%s", start.Format("2006_01"))

	stmts := []string{
		fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s PARTITION OF event FOR VALUES FROM ('%s') TO ('%s')",
			name, start.Format("2006-01-02"), end.Format("2006-01-02"),
		),
		fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_dedupe_key ON %s (dedupe_key)", name, name),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_job_occurred ON %s (ingest_job_id, occurred_at)", name, name),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_job_type ON %s (ingest_job_id, event_type_id)", name, name),
	}
	for _, stmt := range stmts {
		if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to ensure partition %s: %w", name, err)
		}
	}
	return nil
}

// InsertEvent writes an event, treating a dedupe-key conflict as success.
// Returns whether a row was actually inserted, so callers can count dedupe
// hits separately.
func (s *GORMStore) InsertEvent(ctx context.Context, event *models.Event) (bool, error) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event)
	if result.Error != nil {
		if isUniqueConstraintError(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *GORMStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	return getByField[models.Event](s.db, ctx, "id", id, models.ErrEventNotFound)
}

// ListEvents returns events matching the filter in source order
// (occurred_at, then global_line_no).
func (s *GORMStore) ListEvents(ctx context.Context, filter EventFilter) ([]*models.Event, error) {
	q := s.db.WithContext(ctx).Model(&models.Event{})

	if filter.EventTypeKey != "" {
		eventType, err := s.GetEventTypeByKey(ctx, filter.EventTypeKey)
		if err != nil {
			if err == models.ErrEventNotFound {
				// Never-interned type matches nothing.
				return []*models.Event{}, nil
			}
			return nil, err
		}
		q = q.Where("event_type_id = ?", eventType.ID)
	}
	if filter.PlayerID != "" {
		player, err := getByField[models.DictPlayer](s.db, ctx, "player_id", filter.PlayerID, models.ErrEventNotFound)
		if err != nil {
			if err == models.ErrEventNotFound {
				return []*models.Event{}, nil
			}
			return nil, err
		}
		q = q.Where("src_player_id = ? OR dst_player_id = ?", player.ID, player.ID)
	}
	if filter.Start != nil {
		q = q.Where("occurred_at >= ?", *filter.Start)
	}
	if filter.End != nil {
		q = q.Where("occurred_at < ?", *filter.End)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var events []*models.Event
	if err := q.Order("occurred_at ASC, global_line_no ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (s *GORMStore) ListJobEvents(ctx context.Context, jobID int64, limit int) ([]*models.Event, error) {
	var events []*models.Event
	q := s.db.WithContext(ctx).
		Where("ingest_job_id = ?", jobID).
		Order("global_line_no DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (s *GORMStore) CountEvents(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Event{}).Count(&count).Error
	return count, err
}
