package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/arjunmk/postpilot/internal/models"
	"github.com/arjunmk/postpilot/internal/repository"
	"github.com/arjunmk/postpilot/internal/service"
)

type TokenRefreshJob struct {
	sr repository.SocialAccountRepository
	fb service.FacebookService
}

func NewTokenRefreshJob(sr repository.SocialAccountRepository, fb service.FacebookService) *TokenRefreshJob {
	return &TokenRefreshJob{
		sr: sr,
		fb: fb,
	}
}

func (c *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	currentTime := time.Now()
	timeIn30Minutes := currentTime.Add(30 * time.Minute)

	accounts, err := c.sr.ListExpiringBetween(ctx, currentTime, timeIn30Minutes)
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

			// Both facebook and instagram accounts hold page tokens
			// refreshed through the same Graph exchange.
			if err := c.fb.RefreshToken(ctx, acc); err != nil {
				slog.Info("Unable to refresh token for account " + acc.AccountName)
			}
		}(acc)
	}

	wg.Wait()
}
