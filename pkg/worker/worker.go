package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"sitemap-terms/pkg/logger"
)

// worker represents a single worker goroutine
type worker struct {
	id             int
	taskQueue      <-chan Task
	resultChan     chan<- Result
	timeout        time.Duration
	log            *logger.Logger
	tasksProcessed atomic.Uint64
}

func newWorker(id int, taskQueue <-chan Task, resultChan chan<- Result, timeout time.Duration, log *logger.Logger) *worker {
	return &worker{
		id:         id,
		taskQueue:  taskQueue,
		resultChan: resultChan,
		timeout:    timeout,
		log:        log.WithField("worker_id", id),
	}
}

// start runs tasks until the queue is closed and drained or ctx ends.
func (w *worker) start(ctx context.Context, metrics *PoolMetrics) {
	defer func() {
		w.log.WithField("tasks_processed", w.tasksProcessed.Load()).Debug("Worker stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		select {
		case task, ok := <-w.taskQueue:
			if !ok {
				return
			}
			result := w.processTask(ctx, task, metrics)
			select {
			case w.resultChan <- result:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// processTask executes a single task with timeout and panic recovery
func (w *worker) processTask(ctx context.Context, task Task, metrics *PoolMetrics) Result {
	start := time.Now()

	taskCtx := ctx
	timeout := task.Timeout
	if timeout == 0 {
		timeout = w.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				w.log.WithFields(map[string]interface{}{
					"task_id": task.ID,
					"panic":   r,
				}).Error("Task panicked")
				err = &PanicError{Value: r}
			}
		}()
		err = task.Fn(taskCtx)
	}()

	duration := time.Since(start)
	w.tasksProcessed.Add(1)

	result := Result{
		TaskID:   task.ID,
		Error:    err,
		Duration: duration,
		seq:      task.seq,
	}
	if metrics != nil {
		metrics.RecordTaskResult(result)
	}

	log := w.log.WithFields(map[string]interface{}{
		"task_id":  task.ID,
		"duration": duration.String(),
	})
	if err != nil {
		log.WithError(err).Debug("Task completed with error")
	} else {
		log.Debug("Task completed")
	}
	return result
}

// PanicError wraps a panic value as an error
type PanicError struct {
	Value interface{}
}

func (pe *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", pe.Value)
}
