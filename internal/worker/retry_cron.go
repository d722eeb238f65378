package worker

// retry_cron.go
// Background goroutine that periodically moves dead-lettered notification
// jobs back onto their queue. Uses the mailer's circuit breaker so a downed
// SMTP relay is not hammered with replays.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/tegar-arsya/hanadap-sub000/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	redriveTickInterval = time.Minute
	redriveBatchSize    = 10
	// MaxRedrives caps how often a job may come back from the DLQ. Beyond it
	// the entry is parked under DLQPrefix+queue+":habis" for manual handling.
	MaxRedrives = 5
)

// RetryCronConfig holds all dependencies for the re-drive goroutine.
type RetryCronConfig struct {
	RDB    *redis.Client
	Mailer *infra.Mailer
}

// StartRetryCron launches a background goroutine that ticks every minute and
// re-drives up to redriveBatchSize entries of the notification DLQ. It
// respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(redriveTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				if cfg.Mailer == nil || !cfg.Mailer.Enabled() {
					continue
				}
				if cfg.Mailer.State() == infra.CBOpen {
					log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
					continue
				}
				if n, err := redriveDLQ(ctx, cfg.RDB, QueueNotifikasi, redriveBatchSize); err != nil {
					log.Error().Err(err).Msg("retry_cron: re-drive failed")
				} else if n > 0 {
					log.Info().Int("count", n).Msg("retry_cron: jobs moved back from DLQ")
				}
			}
		}
	}()
}

// redriveDLQ pops the oldest entries of dlq:{queue} and either re-enqueues
// them or parks them when they exhausted MaxRedrives. Returns the number of
// jobs re-enqueued.
func redriveDLQ(ctx context.Context, rdb *redis.Client, queue string, limit int) (int, error) {
	key := DLQPrefix + queue
	moved := 0
	for i := 0; i < limit; i++ {
		raw, err := rdb.RPop(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return moved, err
		}

		job, ok := redriveJob(raw)
		if !ok {
			if err := rdb.LPush(ctx, key+":habis", raw).Err(); err != nil {
				return moved, err
			}
			log.Warn().Str("dlq_key", key).Msg("retry_cron: entry parked, re-drive limit reached or unreadable")
			continue
		}

		encoded, err := json.Marshal(job)
		if err != nil {
			return moved, err
		}
		if err := rdb.LPush(ctx, queue, encoded).Err(); err != nil {
			// put it back where it came from
			_ = rdb.RPush(ctx, key, raw).Err()
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// redriveJob rebuilds the job envelope of a DLQ entry. ok is false when the
// entry cannot be decoded or has already been re-driven MaxRedrives times.
func redriveJob(raw string) (Job, bool) {
	var e DLQEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil || e.JobType == "" {
		return Job{}, false
	}
	if e.Redrives >= MaxRedrives {
		return Job{}, false
	}
	return Job{Type: e.JobType, Payload: e.Payload, Redrives: e.Redrives + 1}, true
}
