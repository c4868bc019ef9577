package worker

import (
	"sync/atomic"
	"time"
)

// PoolMetrics tracks worker pool counters
type PoolMetrics struct {
	TasksSubmitted atomic.Uint64
	TasksCompleted atomic.Uint64
	TasksFailed    atomic.Uint64
	TasksRejected  atomic.Uint64

	TotalDuration atomic.Uint64 // nanoseconds
	MinDuration   atomic.Uint64
	MaxDuration   atomic.Uint64

	StartTime time.Time
}

// NewPoolMetrics creates a new metrics instance
func NewPoolMetrics() *PoolMetrics {
	return &PoolMetrics{StartTime: time.Now()}
}

func (pm *PoolMetrics) IncrementTasksSubmitted() { pm.TasksSubmitted.Add(1) }
func (pm *PoolMetrics) IncrementTasksRejected()  { pm.TasksRejected.Add(1) }

// RecordTaskResult counts a finished task and its duration.
func (pm *PoolMetrics) RecordTaskResult(result Result) {
	if result.Error != nil {
		pm.TasksFailed.Add(1)
	} else {
		pm.TasksCompleted.Add(1)
	}
	pm.recordDuration(result.Duration)
}

func (pm *PoolMetrics) recordDuration(duration time.Duration) {
	nanos := uint64(duration.Nanoseconds())
	pm.TotalDuration.Add(nanos)

	for {
		current := pm.MinDuration.Load()
		if current != 0 && nanos >= current {
			break
		}
		if pm.MinDuration.CompareAndSwap(current, nanos) {
			break
		}
	}
	for {
		current := pm.MaxDuration.Load()
		if nanos <= current {
			break
		}
		if pm.MaxDuration.CompareAndSwap(current, nanos) {
			break
		}
	}
}

// GetSnapshot returns a snapshot of current metrics
func (pm *PoolMetrics) GetSnapshot() MetricsSnapshot {
	submitted := pm.TasksSubmitted.Load()
	completed := pm.TasksCompleted.Load()
	failed := pm.TasksFailed.Load()
	finished := completed + failed

	var avg time.Duration
	if finished > 0 {
		avg = time.Duration(pm.TotalDuration.Load() / finished)
	}
	var successRate float64
	if finished > 0 {
		successRate = float64(completed) / float64(finished)
	}

	return MetricsSnapshot{
		TasksSubmitted:  submitted,
		TasksCompleted:  completed,
		TasksFailed:     failed,
		TasksRejected:   pm.TasksRejected.Load(),
		SuccessRate:     successRate,
		AverageDuration: avg,
		MinDuration:     time.Duration(pm.MinDuration.Load()),
		MaxDuration:     time.Duration(pm.MaxDuration.Load()),
		Uptime:          time.Since(pm.StartTime),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	TasksSubmitted  uint64        `json:"tasks_submitted"`
	TasksCompleted  uint64        `json:"tasks_completed"`
	TasksFailed     uint64        `json:"tasks_failed"`
	TasksRejected   uint64        `json:"tasks_rejected"`
	SuccessRate     float64       `json:"success_rate"`
	AverageDuration time.Duration `json:"average_duration"`
	MinDuration     time.Duration `json:"min_duration"`
	MaxDuration     time.Duration `json:"max_duration"`
	Uptime          time.Duration `json:"uptime"`
}
