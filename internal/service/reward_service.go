package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/YongHui-X/ecoplate/internal/domain"
)

// RewardService exposes the eco-point balance and the reward catalogue.
type RewardService struct {
	points  domain.PointsRepository
	rewards domain.RewardRepository
}

func NewRewardService(points domain.PointsRepository, rewards domain.RewardRepository) *RewardService {
	return &RewardService{points: points, rewards: rewards}
}

// PointsSummary is the caller's balance with transaction history.
type PointsSummary struct {
	Balance int                        `json:"balance"`
	History []*domain.PointTransaction `json:"history"`
}

func (s *RewardService) PointsFor(ctx context.Context, userID int64) (*PointsSummary, error) {
	balance, err := s.points.BalanceFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.points.ListFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []*domain.PointTransaction{}
	}
	return &PointsSummary{Balance: balance, History: history}, nil
}

func (s *RewardService) ListRewards(ctx context.Context) ([]*domain.Reward, error) {
	return s.rewards.ListActive(ctx)
}

// Redeem claims one unit of the reward for the user. The voucher code is a
// fresh UUID; balance and stock mutate atomically in the store.
func (s *RewardService) Redeem(ctx context.Context, userID, rewardID int64) (*domain.Redemption, error) {
	return s.rewards.Redeem(ctx, userID, rewardID, uuid.NewString())
}
