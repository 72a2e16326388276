package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatra-gate/backend/internal/issuance"
	"github.com/yatra-gate/backend/pkg/queue"
)

type fakeResender struct {
	mu    sync.Mutex
	calls []uuid.UUID
	err   error
}

func (f *fakeResender) Resend(_ context.Context, _ string, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	return f.err
}

type fakeSource struct {
	mu      sync.Mutex
	jobs    []*queue.Job
	retried []*queue.Job
	dead    []*queue.Job
}

func (s *fakeSource) Dequeue(ctx context.Context) (*queue.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.jobs) == 0 {
		return nil, nil
	}
	j := s.jobs[0]
	s.jobs = s.jobs[1:]
	return j, nil
}

func (s *fakeSource) Retry(_ context.Context, job *queue.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.Attempt++
	s.retried = append(s.retried, job)
	return nil
}

func (s *fakeSource) DeadLetter(_ context.Context, job *queue.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dead = append(s.dead, job)
	return nil
}

func ticketJob(t *testing.T, id uuid.UUID) *queue.Job {
	body, err := json.Marshal(queue.TicketEmailPayload{RegistrationID: id, RequestedBy: "ops@yatra.test"})
	require.NoError(t, err)
	return &queue.Job{ID: uuid.NewString(), Type: queue.JobTypeTicketEmail, Payload: body}
}

func TestProcess(t *testing.T) {
	r := &fakeResender{}
	p := NewEmailProcessor(r, &fakeSource{}, nil)
	id := uuid.New()

	require.NoError(t, p.Process(context.Background(), ticketJob(t, id)))
	assert.Equal(t, []uuid.UUID{id}, r.calls)

	err := p.Process(context.Background(), &queue.Job{Type: "recording_upload"})
	assert.Error(t, err)

	err = p.Process(context.Background(), &queue.Job{Type: queue.JobTypeTicketEmail, Payload: json.RawMessage(`"x"`)})
	assert.Error(t, err)
}

func TestRunRetriesFailedJobs(t *testing.T) {
	r := &fakeResender{err: errors.New("smtp down")}
	src := &fakeSource{jobs: []*queue.Job{ticketJob(t, uuid.New())}}
	p := NewEmailProcessor(r, src, nil)
	p.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return len(src.retried) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, 1, src.retried[0].Attempt)
}

func TestRunDeadLettersPermanentFailures(t *testing.T) {
	for name, resendErr := range map[string]error{
		"not paid":  issuance.ErrNotPaid,
		"not found": fmt.Errorf("%w: registration not found", issuance.ErrRegistrationNotFound),
	} {
		t.Run(name, func(t *testing.T) {
			r := &fakeResender{err: resendErr}
			src := &fakeSource{jobs: []*queue.Job{ticketJob(t, uuid.New()), {ID: "bad", Type: "recording_upload"}}}
			p := NewEmailProcessor(r, src, nil)
			p.backoff = time.Hour

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				p.Run(ctx)
				close(done)
			}()

			assert.Eventually(t, func() bool {
				src.mu.Lock()
				defer src.mu.Unlock()
				return len(src.dead) == 2
			}, time.Second, 5*time.Millisecond)
			cancel()
			<-done
			assert.Empty(t, src.retried)
			assert.Equal(t, 0, src.dead[0].Attempt)
			assert.Equal(t, "bad", src.dead[1].ID)
		})
	}
}
