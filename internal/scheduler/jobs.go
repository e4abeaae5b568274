package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/glassdesk/glassdesk/internal/ingest"
	"github.com/glassdesk/glassdesk/internal/storage"
	"github.com/glassdesk/glassdesk/internal/summary"
)

// TokenRefresher refreshes a user's provider token if needed
type TokenRefresher func(ctx context.Context, userID, provider string) error

// Jobs bundles the standard GlassDesk background jobs
type Jobs struct {
	Users     *storage.UserStore
	Syncer    *ingest.Syncer
	Aggreg    *summary.Aggregator
	Summaries *storage.SummaryStore
	Tokens    *storage.TokenStore
	Refresher TokenRefresher
}

// RegisterAll wires the standard jobs into a scheduler
func (j *Jobs) RegisterAll(s *Scheduler, syncInterval time.Duration) error {
	if syncInterval == 0 {
		syncInterval = 15 * time.Minute
	}

	jobs := []*Job{
		IntervalJob("provider-sync", "Provider sync", syncInterval, j.syncAllUsers),
		DailyJob("daily-summary", "Daily summary precompute", "06:00", j.precomputeSummaries),
		IntervalJob("token-refresh", "Token refresh", time.Hour, j.refreshExpiringTokens),
	}

	for _, job := range jobs {
		if err := s.Register(job); err != nil {
			return err
		}
	}
	return nil
}

// syncAllUsers pulls from every registered connector for every user
func (j *Jobs) syncAllUsers(ctx context.Context) error {
	users, err := j.Users.List()
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	for _, user := range users {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		j.Syncer.SyncAll(ctx, user.ID, 0)
	}
	return nil
}

// precomputeSummaries caches yesterday's summary for every user
func (j *Jobs) precomputeSummaries(ctx context.Context) error {
	users, err := j.Users.List()
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	for _, user := range users {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		daySummary, err := j.Aggreg.ForDay(user.ID, yesterday)
		if err != nil {
			return fmt.Errorf("summarize day for %s: %w", user.ID, err)
		}
		if err := j.Summaries.Put(user.ID, daySummary); err != nil {
			return err
		}
	}
	return nil
}

// refreshExpiringTokens forces a refresh on tokens nearing expiry, so
// sync never races an expired credential
func (j *Jobs) refreshExpiringTokens(ctx context.Context) error {
	if j.Refresher == nil {
		return nil
	}

	expiring, err := j.Tokens.GetExpiring(2 * time.Hour)
	if err != nil {
		return fmt.Errorf("list expiring tokens: %w", err)
	}

	var lastErr error
	for _, rec := range expiring {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := j.Refresher(ctx, rec.UserID, rec.Provider); err != nil {
			lastErr = fmt.Errorf("refresh %s/%s: %w", rec.UserID, rec.Provider, err)
		}
	}
	return lastErr
}
