package health

import (
	"context"
	"fmt"
	"runtime"
)

// MemoryCheckerConfig configures the memory checker.
type MemoryCheckerConfig struct {
	// Limit is the heap size, in bytes, treated as 100%. Zero uses the
	// memory obtained from the OS.
	Limit uint64

	// Warning and Critical are fractions of Limit. Defaults: 0.8 and 0.95.
	Warning  float64
	Critical float64
}

// MemoryChecker reports heap usage.
type MemoryChecker struct {
	cfg  MemoryCheckerConfig
	read func(*runtime.MemStats)
}

// NewMemoryChecker creates a memory checker.
func NewMemoryChecker(cfg MemoryCheckerConfig) *MemoryChecker {
	if cfg.Warning <= 0 || cfg.Warning >= 1 {
		cfg.Warning = 0.8
	}
	if cfg.Critical <= cfg.Warning || cfg.Critical >= 1 {
		cfg.Critical = max(cfg.Warning, 0.95)
	}
	return &MemoryChecker{cfg: cfg, read: runtime.ReadMemStats}
}

// Name returns "memory".
func (m *MemoryChecker) Name() string { return "memory" }

// Check compares heap allocation with the limit.
func (m *MemoryChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context done", err)
	}

	var stats runtime.MemStats
	m.read(&stats)

	limit := m.cfg.Limit
	if limit == 0 {
		limit = stats.Sys
	}
	if limit == 0 {
		return Healthy("memory stats unavailable")
	}

	ratio := float64(stats.HeapAlloc) / float64(limit)
	details := map[string]any{
		"heap_alloc_bytes": stats.HeapAlloc,
		"limit_bytes":      limit,
		"usage_percent":    ratio * 100,
		"num_gc":           stats.NumGC,
		"goroutines":       runtime.NumGoroutine(),
	}
	msg := fmt.Sprintf("heap usage %.1f%%", ratio*100)

	switch {
	case ratio >= m.cfg.Critical:
		return Unhealthy(msg, ErrCheckFailed).WithDetails(details)
	case ratio >= m.cfg.Warning:
		return Degraded(msg).WithDetails(details)
	default:
		return Healthy(msg).WithDetails(details)
	}
}
