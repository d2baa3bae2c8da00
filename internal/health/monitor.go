package health

import (
	"context"
	"sync"
	"time"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// Component is a dependency watched by the monitor. A failing critical
// component makes the whole system critical; others only degrade it.
type Component struct {
	Name     string
	Check    Check
	Critical bool
}

// Monitor aggregates health status from the application's dependencies.
type Monitor struct {
	components []Component
	timeout    time.Duration
	minGap     time.Duration
	lastCheck  time.Time
	lastReport map[string]ComponentHealth
	mu         sync.Mutex
}

// NewMonitor creates a new health monitor.
func NewMonitor(components ...Component) *Monitor {
	return &Monitor{
		components: components,
		timeout:    2 * time.Second,
		minGap:     10 * time.Second,
		lastReport: make(map[string]ComponentHealth),
	}
}

// CheckHealth checks every component, reusing the previous report when called
// again within a few seconds.
func (m *Monitor) CheckHealth(ctx context.Context) map[string]ComponentHealth {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCheck) < m.minGap && len(m.lastReport) > 0 {
		return m.lastReport
	}

	report := make(map[string]ComponentHealth, len(m.components))
	for _, c := range m.components {
		cctx, cancel := context.WithTimeout(ctx, m.timeout)
		start := time.Now()
		err := c.Check(cctx)
		cancel()

		h := ComponentHealth{
			Name:      c.Name,
			Status:    StatusHealthy,
			LatencyMS: time.Since(start).Milliseconds(),
		}
		if err != nil {
			h.Error = err.Error()
			h.Status = StatusDegraded
			if c.Critical {
				h.Status = StatusCritical
			}
		}
		report[c.Name] = h
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}
