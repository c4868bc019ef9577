package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"sitemap-terms/pkg/logger"
)

// Task represents a unit of work to be executed
type Task struct {
	ID      string
	Fn      func(ctx context.Context) error
	Timeout time.Duration

	seq int
}

// Result represents the result of task execution
type Result struct {
	TaskID   string
	Error    error
	Duration time.Duration

	seq int
}

// WorkerPoolConfig holds configuration for the worker pool
type WorkerPoolConfig struct {
	MaxWorkers    int           `mapstructure:"max_workers"`
	QueueSize     int           `mapstructure:"queue_size"`
	WorkerTimeout time.Duration `mapstructure:"task_timeout"`
	EnableMetrics bool          `mapstructure:"enable_metrics"`
}

// DefaultWorkerPoolConfig returns the default configuration
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		MaxWorkers:    runtime.NumCPU() * 2,
		QueueSize:     1000,
		WorkerTimeout: 5 * time.Minute,
		EnableMetrics: true,
	}
}

// WorkerPool runs tasks on a fixed number of goroutines. Results are
// delivered on Results() and must be drained by the caller unless Run is used.
type WorkerPool struct {
	config     WorkerPoolConfig
	taskQueue  chan Task
	resultChan chan Result
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	log        *logger.Logger
	metrics    *PoolMetrics

	nextSeq   atomic.Int64
	started   atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
	submitMu  sync.RWMutex
}

// NewWorkerPool creates a new worker pool with the given configuration
func NewWorkerPool(config WorkerPoolConfig) *WorkerPool {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = config.MaxWorkers
	}

	pool := &WorkerPool{
		config:     config,
		taskQueue:  make(chan Task, config.QueueSize),
		resultChan: make(chan Result, config.QueueSize),
		log:        logger.GetLogger().WithField("component", "worker_pool"),
	}
	if config.EnableMetrics {
		pool.metrics = NewPoolMetrics()
	}
	return pool
}

// Start launches the workers. Cancelling ctx abandons queued tasks.
func (wp *WorkerPool) Start(ctx context.Context) error {
	if !wp.started.CompareAndSwap(false, true) {
		return fmt.Errorf("worker pool already started")
	}
	wp.ctx, wp.cancel = context.WithCancel(ctx)

	wp.log.WithField("max_workers", wp.config.MaxWorkers).Debug("Starting worker pool")
	for i := 0; i < wp.config.MaxWorkers; i++ {
		w := newWorker(i, wp.taskQueue, wp.resultChan, wp.config.WorkerTimeout, wp.log)

		wp.wg.Add(1)
		go func() {
			defer wp.wg.Done()
			w.start(wp.ctx, wp.metrics)
		}()
	}
	return nil
}

// Submit adds a task to the queue without blocking.
func (wp *WorkerPool) Submit(task Task) error {
	wp.submitMu.RLock()
	defer wp.submitMu.RUnlock()

	if wp.closed.Load() {
		return fmt.Errorf("worker pool is closed")
	}
	if !wp.started.Load() {
		return fmt.Errorf("worker pool not started")
	}
	if task.Fn == nil {
		return fmt.Errorf("task %s has no function", task.ID)
	}
	if task.Timeout == 0 {
		task.Timeout = wp.config.WorkerTimeout
	}
	task.seq = int(wp.nextSeq.Add(1) - 1)

	select {
	case wp.taskQueue <- task:
		if wp.metrics != nil {
			wp.metrics.IncrementTasksSubmitted()
		}
		return nil
	default:
		if wp.metrics != nil {
			wp.metrics.IncrementTasksRejected()
		}
		return fmt.Errorf("task queue is full")
	}
}

// SubmitFunc is a convenience method to submit a function as a task
func (wp *WorkerPool) SubmitFunc(id string, fn func(ctx context.Context) error) error {
	return wp.Submit(Task{ID: id, Fn: fn})
}

// Results returns the channel of finished tasks. It is closed by Close.
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultChan
}

// Close stops accepting tasks, lets the workers drain the queue and waits
// for them. Safe to call more than once.
func (wp *WorkerPool) Close() {
	wp.closeOnce.Do(func() {
		wp.submitMu.Lock()
		wp.closed.Store(true)
		close(wp.taskQueue)
		wp.submitMu.Unlock()

		wp.wg.Wait()
		if wp.cancel != nil {
			wp.cancel()
		}
		close(wp.resultChan)
		wp.log.Debug("Worker pool closed")
	})
}

// Stop cancels running tasks and shuts the pool down.
func (wp *WorkerPool) Stop() {
	if wp.cancel != nil {
		wp.cancel()
	}
	wp.Close()
}

// Run executes tasks on a fresh pool and returns one result per task in
// submission order. Tasks abandoned because ctx ended report ctx.Err().
func Run(ctx context.Context, config WorkerPoolConfig, tasks []Task) ([]Result, MetricsSnapshot) {
	if config.QueueSize < len(tasks) {
		config.QueueSize = len(tasks)
	}
	config.EnableMetrics = true
	pool := NewWorkerPool(config)

	results := make([]Result, len(tasks))
	for i, task := range tasks {
		results[i] = Result{TaskID: task.ID, seq: -1}
	}
	if len(tasks) == 0 {
		return results, pool.metrics.GetSnapshot()
	}

	if err := pool.Start(ctx); err != nil {
		for i := range results {
			results[i].Error = err
		}
		return results, pool.metrics.GetSnapshot()
	}
	for i, task := range tasks {
		if err := pool.Submit(task); err != nil {
			results[i].Error = err
		}
	}

	done := make(chan struct{})
	go func() {
		for r := range pool.Results() {
			if r.seq >= 0 && r.seq < len(results) {
				results[r.seq] = r
			}
		}
		close(done)
	}()
	pool.Close()
	<-done

	for i := range results {
		if results[i].seq < 0 && results[i].Error == nil {
			results[i].Error = ctx.Err()
			if results[i].Error == nil {
				results[i].Error = fmt.Errorf("task %s did not run", results[i].TaskID)
			}
		}
	}
	return results, pool.metrics.GetSnapshot()
}

// GetMetrics returns a snapshot of the pool metrics
func (wp *WorkerPool) GetMetrics() MetricsSnapshot {
	if wp.metrics == nil {
		return MetricsSnapshot{}
	}
	return wp.metrics.GetSnapshot()
}
