package database

import (
	"context"

	"github.com/aliasqar1/tets/internal/models"
	"github.com/aliasqar1/tets/internal/store"

	"go.uber.org/zap"
)

// RemoveMember deletes every per-user record for a departed member. The
// caller is responsible for deleting the external custom role, if any.
func (s *Service) RemoveMember(ctx context.Context, userId string) (*store.DepartedMember, error) {
	out := &store.DepartedMember{UserId: userId}
	err := s.MutateBoth(ctx, func(snap *models.Snapshot, doc *models.StreamDocument) error {
		out.Balance = snap.Wallet[userId]
		out.Badge = snap.Badges[userId]
		delete(snap.Wallet, userId)
		delete(snap.Subscription, userId)
		delete(snap.Warns, userId)
		delete(snap.Badges, userId)
		if grant, ok := snap.ShopRole[userId]; ok {
			g := *grant
			out.CustomRole = &g
			delete(snap.ShopRole, userId)
		}
		if _, ok := doc.Streamers[userId]; ok {
			out.WasStreamer = true
			delete(doc.Streamers, userId)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Removed departed member records",
		zap.String("user_id", userId),
		zap.Int64("balance", out.Balance),
		zap.Bool("had_custom_role", out.CustomRole != nil),
		zap.Bool("was_streamer", out.WasStreamer))
	return out, nil
}
