package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReceipt = "jobs:receipt"

	maxAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// ReceiptJobPayload asks for a sale receipt to be rendered and mailed.
type ReceiptJobPayload struct {
	SaleID  string `json:"sale_id"`
	ToEmail string `json:"to_email"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReceipt pushes a receipt delivery job to Redis.
func (d *Dispatcher) EnqueueReceipt(ctx context.Context, saleID uuid.UUID, email string) error {
	return d.enqueue(ctx, QueueReceipt, "receipt", ReceiptJobPayload{
		SaleID:  saleID.String(),
		ToEmail: email,
	})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the receipt queue.
// Each goroutine blocks on BRPOP, so idle workers burn no CPU.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, receipts *ReceiptWorker, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, receipts, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, receipts *ReceiptWorker, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueReceipt).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, receipts, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, receipts *ReceiptWorker, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	var err error
	switch job.Type {
	case "receipt":
		err = receipts.Process(ctx, job.Payload)
	default:
		log.Warn().Str("type", job.Type).Msg("unknown job type, dropping")
		return
	}
	if err == nil {
		return
	}

	job.Attempts++
	if job.Attempts >= maxAttempts {
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
		return
	}
	// Re-enqueue for another attempt.
	if encoded, mErr := json.Marshal(job); mErr == nil {
		if pErr := rdb.LPush(ctx, queue, encoded).Err(); pErr != nil {
			log.Error().Err(pErr).Str("queue", queue).Msg("failed to re-enqueue job")
		}
	}
}
