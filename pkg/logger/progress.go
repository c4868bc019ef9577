package logger

import (
	"fmt"
	"sync"
	"time"
)

// ProgressReporter logs "n of total" progress for a batch of work, at most
// once per interval and always on completion.
type ProgressReporter struct {
	mu          sync.Mutex
	total       int
	current     int
	failed      int
	description string
	interval    time.Duration
	startTime   time.Time
	lastUpdate  time.Time
	logger      *Logger
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(total int, description string, log *Logger) *ProgressReporter {
	if log == nil {
		log = GetLogger()
	}
	now := time.Now()
	return &ProgressReporter{
		total:       total,
		description: description,
		interval:    5 * time.Second,
		startTime:   now,
		lastUpdate:  now,
		logger:      log.WithField("component", "progress"),
	}
}

// SetInterval changes the minimum time between two progress lines.
func (pr *ProgressReporter) SetInterval(interval time.Duration) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.interval = interval
}

// Done records one finished item. ok=false counts it as a failure.
func (pr *ProgressReporter) Done(ok bool) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	pr.current++
	if !ok {
		pr.failed++
	}
	now := time.Now()
	if now.Sub(pr.lastUpdate) >= pr.interval || pr.current >= pr.total {
		pr.report()
		pr.lastUpdate = now
	}
}

// Progress returns the finished, failed and total counters.
func (pr *ProgressReporter) Progress() (current, failed, total int) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.current, pr.failed, pr.total
}

// report must be called with the lock held.
func (pr *ProgressReporter) report() {
	percentage := 100.0
	if pr.total > 0 {
		percentage = float64(pr.current) / float64(pr.total) * 100
	}
	elapsed := time.Since(pr.startTime)

	var eta string
	if pr.current > 0 && pr.current < pr.total {
		remaining := time.Duration(pr.total-pr.current) * (elapsed / time.Duration(pr.current))
		eta = fmt.Sprintf(" (ETA: %s)", remaining.Round(time.Second))
	}

	pr.logger.WithFields(map[string]interface{}{
		"current": pr.current,
		"failed":  pr.failed,
		"total":   pr.total,
		"elapsed": elapsed.Round(time.Millisecond).String(),
	}).Info(fmt.Sprintf("%s: %d/%d (%.1f%%)%s", pr.description, pr.current, pr.total, percentage, eta))
}
