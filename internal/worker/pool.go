package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"brokerdesk/internal/model"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

const (
	QueueNotification = "jobs:notification"
	QueueEmail        = "jobs:email"

	JobNotification = "notification"
	JobEmail        = "email"
)

// MaxJobAttempts is how many times a job runs before it is dead-lettered.
const MaxJobAttempts = 3

var jobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "brokerdesk_jobs_processed_total",
	Help: "Background jobs processed, by type and outcome.",
}, []string{"type", "outcome"})

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Dispatcher enqueues async jobs. The worker pool dequeues them.
type Dispatcher struct {
	queue Queue
}

func NewDispatcher(queue Queue) *Dispatcher {
	return &Dispatcher{queue: queue}
}

// Notify queues a notification for persistence and delivery. The id is
// fixed here so a retried job never stores the same notification twice.
func (d *Dispatcher) Notify(ctx context.Context, n model.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return d.enqueue(ctx, QueueNotification, JobNotification, n)
}

// EnqueueEmail pushes an email job.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.queue.Push(ctx, queue, encoded)
}

// Handler processes one job payload. A returned error schedules a retry.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Pool consumes jobs from every queue that has a handler.
type Pool struct {
	queue    Queue
	handlers map[string]Handler
	queues   []string
	wg       sync.WaitGroup
}

// NewPool maps queue names to handlers.
func NewPool(queue Queue, handlers map[string]Handler) *Pool {
	p := &Pool{queue: queue, handlers: handlers}
	for name := range handlers {
		p.queues = append(p.queues, name)
	}
	return p
}

// Start launches numWorkers goroutines. Each one blocks on Pop, so idle
// workers cost nothing. They exit when ctx is cancelled; Wait blocks until
// they have.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	log.Info().Int("workers", numWorkers).Strs("queues", p.queues).Msg("worker pool started")
}

func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		default:
		}
		queue, raw, err := p.queue.Pop(ctx, 5*time.Second, p.queues...)
		if err != nil {
			if !errors.Is(err, ErrEmpty) && ctx.Err() == nil {
				log.Error().Err(err).Int("worker", id).Msg("queue pop failed")
				time.Sleep(time.Second)
			}
			continue
		}
		p.process(ctx, queue, raw)
	}
}

// process runs a single job. Failures are pushed back with the attempt count
// bumped until MaxJobAttempts, then dead-lettered.
func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, p.queue, queue, "unknown", json.RawMessage(fmt.Sprintf("%q", raw)), "malformed job: "+err.Error(), 0)
		return
	}
	handle, ok := p.handlers[queue]
	if !ok {
		SendToDLQ(ctx, p.queue, queue, job.Type, job.Payload, "no handler for queue", job.Attempts)
		return
	}

	job.Attempts++
	err := handle(ctx, job.Payload)
	if err == nil {
		jobsProcessed.WithLabelValues(job.Type, "ok").Inc()
		log.Debug().Str("type", job.Type).Str("queue", queue).Int("attempt", job.Attempts).Msg("job done")
		return
	}

	log.Warn().Err(err).Str("type", job.Type).Str("queue", queue).Int("attempt", job.Attempts).Msg("job failed")
	if job.Attempts >= MaxJobAttempts {
		jobsProcessed.WithLabelValues(job.Type, "dead").Inc()
		SendToDLQ(ctx, p.queue, queue, job.Type, job.Payload, err.Error(), job.Attempts)
		return
	}
	jobsProcessed.WithLabelValues(job.Type, "retry").Inc()
	encoded, mErr := json.Marshal(job)
	if mErr == nil {
		mErr = p.queue.Push(ctx, queue, encoded)
	}
	if mErr != nil {
		log.Error().Err(mErr).Str("queue", queue).Msg("requeue failed")
		SendToDLQ(ctx, p.queue, queue, job.Type, job.Payload, "requeue failed: "+mErr.Error(), job.Attempts)
	}
}
