package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/coldread-dev/coldread/internal/models"
	"github.com/coldread-dev/coldread/internal/tasks"
)

// Enqueuer queues tasks. *asynq.Client implements it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ParseSchedule parses a standard 5-field cron expression
func ParseSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid usage reset schedule %q: %w", expr, err)
	}
	return schedule, nil
}

// StartUsageScheduler checks every minute whether the usage period is due to
// roll over and enqueues the reset task when it is. It returns when ctx is
// done.
func StartUsageScheduler(ctx context.Context, client Enqueuer, db *gorm.DB, schedule cron.Schedule, logger zerolog.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	// Run immediately on startup, then every minute
	CheckUsageReset(ctx, client, db, schedule, time.Now(), logger)

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			CheckUsageReset(ctx, client, db, schedule, now, logger)
		}
	}
}

// CheckUsageReset enqueues a usage reset if one is due at now. The next reset
// time is advanced immediately so a slow worker doesn't get duplicates.
func CheckUsageReset(ctx context.Context, client Enqueuer, db *gorm.DB, schedule cron.Schedule, now time.Time, logger zerolog.Logger) bool {
	var settings models.Config
	if err := db.First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Debug().Msg("No settings yet - skipping usage reset check")
			return false
		}
		logger.Error().Err(err).Msg("Failed to load settings for usage reset")
		return false
	}

	next := schedule.Next(now).UTC()

	// First run: just record when the first reset happens
	if settings.NextUsageResetAt == nil {
		if err := db.Model(&settings).Update("next_usage_reset_at", next).Error; err != nil {
			logger.Error().Err(err).Msg("Failed to set next_usage_reset_at")
		}
		return false
	}

	if settings.NextUsageResetAt.After(now) {
		logger.Debug().Time("next_usage_reset_at", *settings.NextUsageResetAt).Msg("Usage reset not due yet")
		return false
	}

	if _, err := client.EnqueueContext(ctx, tasks.NewResetUsagePeriodTask()); err != nil {
		logger.Error().Err(err).Msg("Failed to enqueue usage reset task")
		return false
	}

	if err := db.Model(&settings).Update("next_usage_reset_at", next).Error; err != nil {
		logger.Error().Err(err).Msg("Failed to update next_usage_reset_at")
	}

	logger.Info().Time("next_usage_reset_at", next).Msg("Usage reset task enqueued")
	return true
}

// HandleResetUsagePeriod starts a new usage period. Usage events from the
// previous period stop counting toward plan limits.
func HandleResetUsagePeriod(ctx context.Context, t *asynq.Task, db *gorm.DB, now func() time.Time, logger zerolog.Logger) error {
	start := now().UTC()

	res := db.WithContext(ctx).Model(&models.Config{}).Where("1 = 1").Update("usage_period_start", start)
	if res.Error != nil {
		return fmt.Errorf("failed to reset usage period: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to reset usage period: no settings row: %w", asynq.SkipRetry)
	}

	logger.Info().Time("usage_period_start", start).Msg("Usage period reset")
	return nil
}
