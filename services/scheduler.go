package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartArchiveScheduler раз в interval архивирует завершённые турниры.
// Вызывающий останавливает планировщик через Shutdown.
func StartArchiveScheduler(archive ArchiveService, interval time.Duration, logger *slog.Logger) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()

			count, err := archive.ArchivePending(ctx)
			if err != nil {
				if !errors.Is(err, ErrArchiveDisabled) {
					logger.Error("[Scheduler] archive run failed", slog.Any("error", err))
				}
				return
			}
			if count > 0 {
				logger.Info("[Scheduler] tournaments archived", slog.Int("count", count))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	return sched, nil
}
