package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yatra-gate/backend/internal/issuance"
	"github.com/yatra-gate/backend/pkg/queue"
)

// errMalformedJob marks jobs the worker can never process.
var errMalformedJob = errors.New("malformed job")

// Resender re-sends one registration's entry pass.
type Resender interface {
	Resend(ctx context.Context, issuedBy string, registrationID uuid.UUID) error
}

// JobSource is the job queue as the worker uses it.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
	DeadLetter(ctx context.Context, job *queue.Job) error
}

// permanent reports whether retrying the job cannot change its outcome.
func permanent(err error) bool {
	return errors.Is(err, errMalformedJob) ||
		errors.Is(err, issuance.ErrNotPaid) ||
		errors.Is(err, issuance.ErrRegistrationNotFound)
}

// EmailProcessor processes ticket email jobs.
type EmailProcessor struct {
	resender Resender
	queue    JobSource
	logger   *zap.Logger
	backoff  time.Duration
}

// NewEmailProcessor creates a ticket email processor.
func NewEmailProcessor(resender Resender, q JobSource, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{resender: resender, queue: q, logger: logger, backoff: queue.RetryBackoff}
}

// Process executes one ticket email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeTicketEmail {
		return fmt.Errorf("%w: unknown job type %s", errMalformedJob, job.Type)
	}
	var payload queue.TicketEmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("%w: unmarshal payload: %v", errMalformedJob, err)
	}
	if err := p.resender.Resend(ctx, payload.RequestedBy, payload.RegistrationID); err != nil {
		return err
	}
	p.logger.Info("ticket email resent", zap.String("registration_id", payload.RegistrationID.String()), zap.String("requested_by", payload.RequestedBy))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if permanent(err) {
				if dlErr := p.queue.DeadLetter(ctx, job); dlErr != nil {
					p.logger.Error("dead letter failed", zap.Error(dlErr))
				}
				continue
			}
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *EmailProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
