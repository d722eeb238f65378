package worker

// Dead Letter Queue
// Notification jobs that still fail after their retries are parked in a
// Redis list per source queue (dlq:{queue}) for manual inspection.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DLQEntry wraps a failed job with metadata for debugging.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // RFC 3339, UTC
	Attempts      int             `json:"attempts"`
	Redrives      int             `json:"redrives"`
}

func newDLQEntry(queue string, job Job, reason string, attempts int, at time.Time) DLQEntry {
	payload := job.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`null`)
	}
	return DLQEntry{
		OriginalQueue: queue,
		JobType:       job.Type,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      at.UTC().Format(time.RFC3339),
		Attempts:      attempts,
		Redrives:      job.Redrives,
	}
}

// SendToDLQ parks a failed job. Errors are logged, never returned: the
// worker has nothing better to do with them.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, reason string, attempts int) {
	data, err := json.Marshal(newDLQEntry(queue, job, reason, attempts, time.Now()))
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	key := DLQPrefix + queue
	if err := rdb.LPush(ctx, key, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", key).Msg("dlq: failed to push to DLQ")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", job.Type).
		Int("redrives", job.Redrives).
		Str("reason", reason).
		Msg("dlq: job moved to dead letter queue")
}

// DLQLength returns the number of parked jobs, reported by /health.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}
