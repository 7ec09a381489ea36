package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/post-relay/app/database"
)

const (
	defaultQueueSize = 1024
	taskTimeout      = 30 * time.Second
	maxRetryDelay    = 30 * time.Second
)

var (
	ErrQueueFull        = errors.New("task queue is full")
	ErrSchedulerStopped = errors.New("scheduler stopped")
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	repo        database.ResolutionRepository
	interval    time.Duration
	retention   time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	wg          sync.WaitGroup
	workersWG   sync.WaitGroup
	mu          sync.RWMutex
	stopped     bool
	taskQueue   chan TaskInterface
}

func NewScheduler(repo database.ResolutionRepository, interval time.Duration, workerCount int, retention time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if workerCount <= 0 {
		workerCount = 1
	}
	if interval <= 0 {
		interval = time.Hour
	}

	return &Scheduler{
		repo:        repo,
		interval:    interval,
		retention:   retention,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		taskQueue:   make(chan TaskInterface, defaultQueueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.workersWG.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueuePrune()

		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.enqueuePrune()
			}
		}
	}()
}

// Stop halts the ticker, lets workers drain the queued tasks and waits for
// them to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.done)
	close(s.taskQueue)
	s.mu.Unlock()

	s.wg.Wait()
	s.workersWG.Wait()
	s.cancel()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stopped {
		return ErrSchedulerStopped
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *Scheduler) enqueuePrune() {
	task := NewPruneResolutionsTask(s.retention, s.repo)
	if err := s.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue PruneResolutionsTask", "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.workersWG.Done()

	for task := range s.taskQueue {
		s.executeTask(id, task)
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := retryDelayFor(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		timer := time.NewTimer(retryDelay)
		defer timer.Stop()

		select {
		case <-s.done:
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-timer.C:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}

func retryDelayFor(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	delay := time.Duration(1<<uint(retryCount-1)) * time.Second
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}
