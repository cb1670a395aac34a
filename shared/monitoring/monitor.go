package monitoring

import (
	"fmt"
	"sync"
	"time"

	"shorts-studio/shared/logger"
)

// Monitor tracks the outcome of the most recent scheduled run.
type Monitor struct {
	mu             sync.RWMutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string
	lastError      string
	log            logger.Logger
	now            func() time.Time
}

func NewMonitor(log logger.Logger) *Monitor {
	return &Monitor{log: log, now: time.Now}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = m.now()
	m.lastSummary = summary
	m.lastError = ""
	m.mu.Unlock()

	m.log.Info("Run completed successfully", logger.String("summary", summary), logger.Duration("duration", duration))
}

// RecordPartialFailure logs err without changing health.
func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	m.log.Warn("Partial failure", logger.Error(err), logger.Duration("duration", duration))
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = m.now()
	m.lastError = err.Error()
	m.mu.Unlock()

	m.log.Error("Critical failure", logger.Error(err), logger.Duration("duration", duration))
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true // No runs yet, assume healthy
	}
	return m.lastRunSuccess
}

// Status is the JSON form of the monitor state.
type Status struct {
	Healthy     bool      `json:"healthy"`
	LastRunTime time.Time `json:"lastRunTime,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Error       string    `json:"error,omitempty"`
}

func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Status{
		Healthy:     m.lastRunTime.IsZero() || m.lastRunSuccess,
		LastRunTime: m.lastRunTime,
		Summary:     m.lastSummary,
		Error:       m.lastError,
	}
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}
	if m.lastRunSuccess {
		return fmt.Sprintf("Last run: %s", m.lastRunTime.Format("Jan 2 15:04"))
	}
	return fmt.Sprintf("Last run failed: %s", m.lastRunTime.Format("Jan 2 15:04"))
}
