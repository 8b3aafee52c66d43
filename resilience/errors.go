package resilience

import "errors"

// ErrBulkheadFull is returned when no slot frees up in time.
var ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")
