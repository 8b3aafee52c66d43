package health

import (
	"context"
	"runtime"
	"testing"
)

func memChecker(cfg MemoryCheckerConfig, heap uint64) *MemoryChecker {
	m := NewMemoryChecker(cfg)
	m.read = func(s *runtime.MemStats) {
		s.HeapAlloc = heap
		s.Sys = 1000
	}
	return m
}

func TestMemoryChecker_Thresholds(t *testing.T) {
	tests := []struct {
		name string
		heap uint64
		want Status
	}{
		{"normal", 500, StatusHealthy},
		{"warning", 850, StatusDegraded},
		{"critical", 960, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := memChecker(MemoryCheckerConfig{Limit: 1000}, tt.heap).Check(context.Background())
			if r.Status != tt.want {
				t.Errorf("Status = %v, want %v (%s)", r.Status, tt.want, r.Message)
			}
			if r.Details["limit_bytes"] != uint64(1000) {
				t.Errorf("details = %v", r.Details)
			}
		})
	}
}

func TestMemoryChecker_DefaultsToSys(t *testing.T) {
	r := memChecker(MemoryCheckerConfig{}, 990).Check(context.Background())
	if r.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy against Sys", r.Status)
	}
}

func TestMemoryChecker_InvalidThresholds(t *testing.T) {
	m := NewMemoryChecker(MemoryCheckerConfig{Warning: 2, Critical: 0.1})
	if m.cfg.Warning != 0.8 || m.cfg.Critical != 0.95 {
		t.Errorf("cfg = %+v", m.cfg)
	}
}

func TestMemoryChecker_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if r := NewMemoryChecker(MemoryCheckerConfig{}).Check(ctx); r.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", r.Status)
	}
}

func TestMemoryChecker_Live(t *testing.T) {
	r := NewMemoryChecker(MemoryCheckerConfig{Limit: 1 << 40}).Check(context.Background())
	if r.Status != StatusHealthy {
		t.Errorf("Status = %v against a 1TiB limit", r.Status)
	}
}
