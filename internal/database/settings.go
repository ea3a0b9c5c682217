package database

import (
	"context"
	"fmt"

	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/store"
)

// GetServerSettings returns a copy of the guild's settings; unconfigured fields are empty
func (s *Service) GetServerSettings(ctx context.Context, guildId string) models.ServerSettings {
	var out models.ServerSettings
	s.View(func(snap *models.Snapshot) {
		if ss, ok := snap.ServerSettings[guildId]; ok {
			out = *ss
		}
	})
	return out
}

func (s *Service) UpdateServerSettings(ctx context.Context, guildId string, fn func(ss *models.ServerSettings)) error {
	if guildId == "" {
		return fmt.Errorf("guild id is required: %w", store.ErrInvalidInput)
	}
	return s.Mutate(ctx, func(snap *models.Snapshot) error {
		fn(snap.Settings(guildId))
		return nil
	})
}
