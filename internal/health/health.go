// Package health reports process uptime, memory footprint and a degraded flag
// for the health method.
package health

import (
	"math"
	"sync"
	"time"

	"github.com/orchestr8/orchestr8-mcp/internal/logger"
)

var logHealth = logger.New("health:monitor")

// Status values.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// Status is the result of the health method.
type Status struct {
	Status   string  `json:"status"`
	UptimeMS int64   `json:"uptime_ms"`
	MemoryMB float64 `json:"memory_mb"`
}

// MemorySampler returns the resident memory of the process in bytes.
type MemorySampler func() (uint64, error)

// Monitor tracks process health. The zero value is not usable; use New.
type Monitor struct {
	start  time.Time
	now    func() time.Time
	memory MemorySampler

	mu       sync.RWMutex
	degraded string // reason; empty when healthy
}

// New creates a monitor whose uptime counts from now. A nil sampler uses
// ResidentMemory.
func New(sampler MemorySampler) *Monitor {
	if sampler == nil {
		sampler = ResidentMemory
	}
	return &Monitor{
		start:  time.Now(),
		now:    time.Now,
		memory: sampler,
	}
}

// Status samples the current health. Uptime relies on the monotonic clock
// reading carried by time.Now, so wall clock changes do not move it backwards.
func (m *Monitor) Status() Status {
	uptime := m.now().Sub(m.start).Milliseconds()
	if uptime < 0 {
		uptime = 0
	}

	var memoryMB float64
	if rss, err := m.memory(); err != nil {
		logHealth.Printf("Memory sampling failed: %v", err)
	} else {
		memoryMB = math.Round(float64(rss)/(1024*1024)*100) / 100
	}

	status := StatusHealthy
	if reason := m.DegradedReason(); reason != "" {
		status = StatusDegraded
	}

	return Status{Status: status, UptimeMS: uptime, MemoryMB: memoryMB}
}

// SetDegraded marks the process degraded. An empty reason is replaced with
// "unspecified".
func (m *Monitor) SetDegraded(reason string) {
	if reason == "" {
		reason = "unspecified"
	}
	m.mu.Lock()
	m.degraded = reason
	m.mu.Unlock()
	logHealth.Printf("Marked degraded: %s", reason)
	logger.LogWarn("health", "Server degraded: %s", reason)
}

// ClearDegraded returns the process to healthy.
func (m *Monitor) ClearDegraded() {
	m.mu.Lock()
	was := m.degraded
	m.degraded = ""
	m.mu.Unlock()
	if was != "" {
		logHealth.Printf("Cleared degraded state (was: %s)", was)
		logger.LogInfo("health", "Server healthy again")
	}
}

// DegradedReason returns why the process is degraded, or "" when healthy.
func (m *Monitor) DegradedReason() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.degraded
}
