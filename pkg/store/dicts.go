package store

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/caseforge/caseforge/pkg/models"
)

// ============================================
// DICTIONARY OPERATIONS
// ============================================
//
// All dictionaries are monotone intern tables: once a natural key maps to an
// id, the binding never changes. Concurrency is handled by the unique
// constraint on the natural key plus a single retry-read on conflict, so
// every caller observes the same id.

func (s *GORMStore) GetOrCreateEventType(ctx context.Context, key string) (int64, error) {
	return getOrCreate(s.db.WithContext(ctx), "key", key,
		&models.DictEventType{Key: key},
		func(m *models.DictEventType) int64 { return m.ID })
}

func (s *GORMStore) GetOrCreateItem(ctx context.Context, name string) (int64, error) {
	return getOrCreate(s.db.WithContext(ctx), "name", name,
		&models.DictItem{Name: name},
		func(m *models.DictItem) int64 { return m.ID })
}

func (s *GORMStore) GetOrCreateContainer(ctx context.Context, key string) (int64, error) {
	return getOrCreate(s.db.WithContext(ctx), "key", key,
		&models.DictContainer{Key: key, OwnerPlayerID: containerOwner(key)},
		func(m *models.DictContainer) int64 { return m.ID })
}

func (s *GORMStore) GetOrCreatePlayer(ctx context.Context, playerID string) (int64, error) {
	return getOrCreate(s.db.WithContext(ctx), "player_id", playerID,
		&models.DictPlayer{PlayerID: playerID},
		func(m *models.DictPlayer) int64 { return m.ID })
}

// EnsureAlias records a display name observed for a player. Duplicates are
// swallowed via the (player_id, alias) unique index.
func (s *GORMStore) EnsureAlias(ctx context.Context, playerDictID int64, alias string) error {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return nil
	}
	err := s.db.WithContext(ctx).Create(&models.DictAlias{PlayerID: playerDictID, Alias: alias}).Error
	if err != nil && isUniqueConstraintError(err) {
		return nil
	}
	return err
}

func (s *GORMStore) GetEventTypeByKey(ctx context.Context, key string) (*models.DictEventType, error) {
	return getByField[models.DictEventType](s.db, ctx, "key", key, models.ErrEventNotFound)
}

func (s *GORMStore) ListEventTypes(ctx context.Context) ([]*models.DictEventType, error) {
	return listAll[models.DictEventType](s.db, ctx, "key ASC")
}

// getOrCreate implements the intern contract for one dictionary row:
// read, insert on miss, retry-read once if the insert hit the unique
// constraint.
func getOrCreate[T any](db *gorm.DB, field, value string, fresh *T, id func(*T) int64) (int64, error) {
	var existing T
	err := db.Where(field+" = ?", value).First(&existing).Error
	if err == nil {
		return id(&existing), nil
	}

	if err := db.Create(fresh).Error; err != nil {
		if !isUniqueConstraintError(err) {
			return 0, err
		}
		if err := db.Where(field+" = ?", value).First(&existing).Error; err != nil {
			return 0, err
		}
		return id(&existing), nil
	}
	return id(fresh), nil
}

// containerOwner extracts the owning player's natural id from container keys
// shaped like "portbagaj_<playerId>_...".
func containerOwner(key string) *string {
	if !strings.HasPrefix(key, "portbagaj_") {
		return nil
	}
	parts := strings.Split(key, "_")
	if len(parts) < 2 || parts[1] == "" {
		return nil
	}
	owner := parts[1]
	return &owner
}
