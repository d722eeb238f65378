package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/tegar-arsya/hanadap-sub000/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const QueueNotifikasi = "jobs:notifikasi"

const JobNotifikasiKeputusan = "notifikasi_keputusan"

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Redrives int             `json:"redrives,omitempty"` // times moved back from the DLQ
}

// Handler processes one job payload. A returned error moves the job to the DLQ.
type Handler interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// KirimKeputusan enqueues the decision notice for a processed request. Only
// the id travels through Redis; the worker reloads the request.
func (d *Dispatcher) KirimKeputusan(ctx context.Context, p *model.Permintaan) error {
	if p.PemintaEmail == "" {
		return nil
	}
	return d.enqueue(ctx, QueueNotifikasi, JobNotifikasiKeputusan, NotifikasiPayload{PermintaanID: p.ID.String()})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	if d.rdb == nil {
		return errors.New("dispatcher: redis not configured")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming QueueNotifikasi.
// Each goroutine blocks on BRPOP while idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, handlers map[string]Handler) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, handlers)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, handlers map[string]Handler) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueNotifikasi).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			if job, err := processJob(ctx, handlers, result[1]); err != nil {
				SendToDLQ(ctx, rdb, result[0], job, err.Error(), maxAttempts)
			}
		}
	}
}

// processJob decodes the envelope and routes it to its handler. The decoded
// job is returned alongside any error so the caller can dead-letter it.
func processJob(ctx context.Context, handlers map[string]Handler, raw string) (Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Err(err).Msg("worker: failed to unmarshal job")
		return Job{Type: "unknown", Payload: json.RawMessage(`null`)}, err
	}
	h, ok := handlers[job.Type]
	if !ok {
		return job, errors.New("worker: no handler for job type " + job.Type)
	}
	return job, h.Process(ctx, job.Payload)
}
