// Package performance provides operation tracking with per-tenant markers
// for latency visibility on the analytics path.
package performance

import (
	"fmt"
	"sync"
	"time"

	"github.com/storekeephq/storekeep-go/internal/infrastructure/observability/logging"
)

// Marker tracks a single operation from start to completion.
type Marker struct {
	ID        string         `json:"id"`
	Operation string         `json:"operation"`
	TenantID  string         `json:"tenantId"`
	StartTime time.Time      `json:"startTime"`
	EndTime   time.Time      `json:"endTime"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	completed bool
	tracker   *Tracker
	mu        sync.Mutex
}

// Tracker records operation markers and keeps rolling per-operation stats.
type Tracker struct {
	mu      sync.RWMutex
	active  map[string]*Marker
	stats   map[string]*operationStats
	logger  *logging.ChanneledLogger
	slowOps time.Duration
}

type operationStats struct {
	Count         int64         `json:"count"`
	Failures      int64         `json:"failures"`
	TotalDuration time.Duration `json:"totalDuration"`
	MaxDuration   time.Duration `json:"maxDuration"`
}

// NewTracker creates an operation tracker. Operations slower than slowOps
// are logged at warn level on the performance channel.
func NewTracker(logger *logging.ChanneledLogger, slowOps time.Duration) *Tracker {
	if slowOps <= 0 {
		slowOps = 2 * time.Second
	}
	return &Tracker{
		active:  make(map[string]*Marker),
		stats:   make(map[string]*operationStats),
		logger:  logger,
		slowOps: slowOps,
	}
}

// StartOperation begins tracking an operation for a tenant.
func (t *Tracker) StartOperation(operation, tenantID string) *Marker {
	marker := &Marker{
		ID:        fmt.Sprintf("%s_%s_%d", tenantID, operation, time.Now().UnixNano()),
		Operation: operation,
		TenantID:  tenantID,
		StartTime: time.Now(),
		Success:   true,
		Metadata:  make(map[string]any),
		tracker:   t,
	}

	t.mu.Lock()
	t.active[marker.ID] = marker
	t.mu.Unlock()
	return marker
}

// Complete finishes the marker and folds it into the rolling stats.
// Safe to call more than once; later calls are ignored.
func (m *Marker) Complete() {
	m.mu.Lock()
	if m.completed {
		m.mu.Unlock()
		return
	}
	m.completed = true
	m.EndTime = time.Now()
	m.mu.Unlock()

	if m.tracker != nil {
		m.tracker.complete(m)
	}
}

// SetSuccess overrides the marker's success flag.
func (m *Marker) SetSuccess(success bool) {
	m.mu.Lock()
	m.Success = success
	m.mu.Unlock()
}

// SetError marks the operation failed and records the error text.
func (m *Marker) SetError(err error) {
	m.mu.Lock()
	m.Success = false
	if err != nil {
		m.Error = err.Error()
	}
	m.mu.Unlock()
}

// AddMetadata attaches a key/value pair to the marker.
func (m *Marker) AddMetadata(key string, value any) {
	m.mu.Lock()
	m.Metadata[key] = value
	m.mu.Unlock()
}

// Duration returns the elapsed time, live if still running.
func (m *Marker) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.completed {
		return m.EndTime.Sub(m.StartTime)
	}
	return time.Since(m.StartTime)
}

func (t *Tracker) complete(m *Marker) {
	duration := m.EndTime.Sub(m.StartTime)

	t.mu.Lock()
	delete(t.active, m.ID)
	stats, ok := t.stats[m.Operation]
	if !ok {
		stats = &operationStats{}
		t.stats[m.Operation] = stats
	}
	stats.Count++
	if !m.Success {
		stats.Failures++
	}
	stats.TotalDuration += duration
	if duration > stats.MaxDuration {
		stats.MaxDuration = duration
	}
	t.mu.Unlock()

	if t.logger == nil {
		return
	}
	if duration > t.slowOps {
		t.logger.Perf().Warn("Slow operation",
			"operation", m.Operation, "tenantId", m.TenantID,
			"duration", duration, "success", m.Success)
	} else {
		t.logger.Perf().Debug("Operation completed",
			"operation", m.Operation, "tenantId", m.TenantID,
			"duration", duration, "success", m.Success)
	}
}

// ActiveCount returns the number of in-flight markers.
func (t *Tracker) ActiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.active)
}

// Summary reports per-operation counts and latency for the health endpoint.
func (t *Tracker) Summary() map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()

	operations := make(map[string]any, len(t.stats))
	for op, s := range t.stats {
		avg := time.Duration(0)
		if s.Count > 0 {
			avg = s.TotalDuration / time.Duration(s.Count)
		}
		operations[op] = map[string]any{
			"count":       s.Count,
			"failures":    s.Failures,
			"avgDuration": avg.String(),
			"maxDuration": s.MaxDuration.String(),
		}
	}
	return map[string]any{
		"activeOperations": len(t.active),
		"operations":       operations,
	}
}
