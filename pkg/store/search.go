package store

import (
	"context"

	"github.com/caseforge/caseforge/pkg/models"
)

// ============================================
// SEARCH
// ============================================

// SearchPlayers matches the query against player natural ids and recorded
// aliases (case-insensitive substring). Alias hits are folded into their
// player's match entry.
func (s *GORMStore) SearchPlayers(ctx context.Context, query string) ([]*SearchMatch, error) {
	pattern := "%" + query + "%"

	var players []*models.DictPlayer
	if err := s.db.WithContext(ctx).
		Where("player_id LIKE ?", pattern).
		Limit(50).
		Find(&players).Error; err != nil {
		return nil, err
	}

	var aliases []*models.DictAlias
	if err := s.db.WithContext(ctx).
		Where("alias LIKE ?", pattern).
		Limit(50).
		Find(&aliases).Error; err != nil {
		return nil, err
	}

	byID := make(map[int64]*SearchMatch)
	order := make([]int64, 0, len(players)+len(aliases))

	for _, p := range players {
		byID[p.ID] = &SearchMatch{PlayerID: p.ID, NaturalID: p.PlayerID}
		order = append(order, p.ID)
	}
	for _, a := range aliases {
		match, ok := byID[a.PlayerID]
		if !ok {
			var player models.DictPlayer
			if err := s.db.WithContext(ctx).First(&player, a.PlayerID).Error; err != nil {
				continue
			}
			match = &SearchMatch{PlayerID: player.ID, NaturalID: player.PlayerID}
			byID[a.PlayerID] = match
			order = append(order, a.PlayerID)
		}
		match.Aliases = append(match.Aliases, a.Alias)
	}

	matches := make([]*SearchMatch, 0, len(order))
	for _, id := range order {
		matches = append(matches, byID[id])
	}
	return matches, nil
}
