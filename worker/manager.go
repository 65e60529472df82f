package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/viafly/viafly/config"
	"github.com/viafly/viafly/pkg/logger"
	"github.com/viafly/viafly/queue"
)

const dequeueWait = 2 * time.Second

// Manager runs a pool of sweep workers against the job queue.
type Manager struct {
	queue     queue.Queue
	worker    *Worker
	cfg       config.WorkerConfig
	log       *logger.Logger
	scheduler *Scheduler
	stopChan  chan struct{}
	workerWg  sync.WaitGroup
}

// NewManager creates a worker manager. scheduler may be nil when no recurring
// sweep is configured.
func NewManager(q queue.Queue, w *Worker, scheduler *Scheduler, cfg config.WorkerConfig, log *logger.Logger) *Manager {
	return &Manager{
		queue:     q,
		worker:    w,
		cfg:       cfg,
		log:       log,
		scheduler: scheduler,
		stopChan:  make(chan struct{}),
	}
}

// Start launches the worker pool and the scheduler.
func (m *Manager) Start() {
	m.log.Info("starting worker pool", "concurrency", m.cfg.Concurrency)

	for i := 0; i < m.cfg.Concurrency; i++ {
		m.workerWg.Add(1)
		go m.runWorker(i)
	}

	if m.scheduler != nil {
		m.scheduler.Start()
	}
}

// Stop shuts the pool down, waiting up to the configured timeout for
// in-flight jobs.
func (m *Manager) Stop() {
	m.log.Info("stopping worker pool")

	if m.scheduler != nil {
		m.scheduler.Stop()
	}
	close(m.stopChan)

	done := make(chan struct{})
	go func() {
		m.workerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.log.Info("all workers stopped")
	case <-time.After(m.cfg.ShutdownTimeout):
		m.log.Warn("worker shutdown timed out")
	}
}

func (m *Manager) runWorker(id int) {
	defer m.workerWg.Done()
	m.log.Debug("worker started", "worker", id)

	for {
		select {
		case <-m.stopChan:
			m.log.Debug("worker stopping", "worker", id)
			return
		default:
			if err := m.processOne(); err != nil {
				m.log.Error(err, "process job", "worker", id)
			}
		}
	}
}

// processOne waits briefly for a job and runs it to completion.
func (m *Manager) processOne() error {
	waitCtx, cancel := context.WithTimeout(context.Background(), dequeueWait+time.Second)
	job, err := m.queue.Dequeue(waitCtx, dequeueWait)
	cancel()
	if err != nil {
		return fmt.Errorf("dequeue: %w", err)
	}
	if job == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.JobTimeout)
	defer cancel()

	m.log.Info("processing job", "job_id", job.ID, "type", job.Type)

	result, err := m.runJob(ctx, job)
	if err != nil {
		if nackErr := m.queue.Nack(ctx, job.ID, err); nackErr != nil {
			m.log.Error(nackErr, "nack job", "job_id", job.ID)
		}
		return fmt.Errorf("job %s: %w", job.ID, err)
	}

	if ackErr := m.queue.Ack(ctx, job.ID, result); ackErr != nil {
		return fmt.Errorf("ack job %s: %w", job.ID, ackErr)
	}
	return nil
}

func (m *Manager) runJob(ctx context.Context, job *queue.Job) (string, error) {
	switch job.Type {
	case JobTypeCollectSweep:
		var payload SweepPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return "", fmt.Errorf("decode sweep payload: %w", err)
		}
		return m.worker.ProcessSweep(ctx, job.ID, payload)
	default:
		return "", fmt.Errorf("unknown job type: %s", job.Type)
	}
}
