package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/varunm24/socialflow/internal/models"
	"github.com/varunm24/socialflow/internal/repository"
)

// TokenRefresher renews an account's stored token material. Satisfied by
// platform.Provider.
type TokenRefresher interface {
	Refresh(ctx context.Context, account *models.SocialAccount) error
}

type TokenRefreshJob struct {
	sr        repository.SocialAccountRepository
	refresher TokenRefresher
}

func NewTokenRefreshJob(sr repository.SocialAccountRepository, refresher TokenRefresher) *TokenRefreshJob {
	return &TokenRefreshJob{
		sr:        sr,
		refresher: refresher,
	}
}

// RefreshTokens renews tokens expiring within the next 30 minutes so
// publishes never start with a stale token.
func (c *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	currentTime := time.Now()
	timeIn30Minutes := currentTime.Add(30 * time.Minute)

	accounts, err := c.sr.ListByTokenExpiry(ctx, currentTime, timeIn30Minutes)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, acc := range accounts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.SocialAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := c.refresher.Refresh(ctx, acc); err != nil {
				slog.Warn("token refresh failed", "account_id", acc.ID, "platform", acc.Platform, "error", err)
			}
		}(acc)
	}

	wg.Wait()
}
