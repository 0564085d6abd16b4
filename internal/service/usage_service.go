package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/varunm24/socialflow/internal/models"
	"github.com/varunm24/socialflow/internal/repository"
)

var (
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrDailyLimitReached    = errors.New("daily limit reached")
)

type UsageService interface {
	CheckAndConsume(ctx context.Context, userID int64, platformName, action string) error
}

type usageService struct {
	sub   repository.SubscriptionRepository
	usage repository.UsageRepository
}

func NewUsageService(sub repository.SubscriptionRepository, usage repository.UsageRepository) UsageService {
	return &usageService{sub: sub, usage: usage}
}

// CheckAndConsume verifies the user's active plan still has budget for the
// action today and consumes one unit. The check and the increment are two
// statements; concurrent callers can overshoot the limit slightly, which is
// accepted for now.
func (s *usageService) CheckAndConsume(ctx context.Context, userID int64, platformName, action string) error {
	plan, ok, err := s.sub.GetActivePlan(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %d: %w", userID, ErrNoActiveSubscription)
	}

	counter, err := s.usage.GetToday(ctx, userID, platformName)
	if err != nil {
		return err
	}

	var used, limit int
	switch action {
	case models.UsageActionPost:
		used, limit = counter.Posts, plan.PostsPerDay
	case models.UsageActionComment:
		used, limit = counter.Comments, plan.CommentsPerDay
	case models.UsageActionDM:
		used, limit = counter.DMs, plan.DMsPerDay
	default:
		return fmt.Errorf("unknown usage action %q", action)
	}

	if used >= limit {
		return fmt.Errorf("daily %s limit reached (%d/%d): %w", action, used, limit, ErrDailyLimitReached)
	}

	return s.usage.Consume(ctx, userID, platformName, action)
}
