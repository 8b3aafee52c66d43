package resilience

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxConcurrent applies when BulkheadConfig.MaxConcurrent is not set.
const DefaultMaxConcurrent = 10

// BulkheadConfig configures the bulkhead.
type BulkheadConfig struct {
	// MaxConcurrent is the number of slots. Default: DefaultMaxConcurrent.
	MaxConcurrent int

	// MaxWait is how long a call may wait for a slot. Zero fails at once.
	MaxWait time.Duration
}

// Bulkhead limits concurrent operations.
type Bulkhead struct {
	config BulkheadConfig
	slots  chan struct{}

	mu   sync.Mutex
	peak int
	shed int64
}

// NewBulkhead creates a bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = DefaultMaxConcurrent
	}
	return &Bulkhead{
		config: config,
		slots:  make(chan struct{}, config.MaxConcurrent),
	}
}

// Acquire takes a slot. It returns ErrBulkheadFull when none frees up within
// MaxWait, or ctx.Err() when ctx ends first.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case b.slots <- struct{}{}:
		b.admitted()
		return nil
	default:
	}

	if b.config.MaxWait <= 0 {
		b.rejected()
		return ErrBulkheadFull
	}

	timer := time.NewTimer(b.config.MaxWait)
	defer timer.Stop()

	select {
	case b.slots <- struct{}{}:
		b.admitted()
		return nil
	case <-timer.C:
		b.rejected()
		return ErrBulkheadFull
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot taken by Acquire.
func (b *Bulkhead) Release() {
	select {
	case <-b.slots:
	default:
	}
}

// Execute runs op while holding a slot.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.Acquire(ctx); err != nil {
		return err
	}
	defer b.Release()
	return op(ctx)
}

func (b *Bulkhead) admitted() {
	active := len(b.slots)
	b.mu.Lock()
	if active > b.peak {
		b.peak = active
	}
	b.mu.Unlock()
}

func (b *Bulkhead) rejected() {
	b.mu.Lock()
	b.shed++
	b.mu.Unlock()
}

// Metrics returns a snapshot of bulkhead usage.
func (b *Bulkhead) Metrics() BulkheadMetrics {
	active := len(b.slots)
	b.mu.Lock()
	defer b.mu.Unlock()
	return BulkheadMetrics{
		Active:        active,
		MaxActive:     b.peak,
		Available:     b.config.MaxConcurrent - active,
		MaxConcurrent: b.config.MaxConcurrent,
		Rejected:      b.shed,
	}
}

// BulkheadMetrics contains bulkhead statistics.
type BulkheadMetrics struct {
	Active        int
	MaxActive     int
	Available     int
	MaxConcurrent int
	Rejected      int64
}
