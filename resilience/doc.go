// Package resilience caps how many tool calls run at once.
//
// A Bulkhead hands out a fixed number of slots. Calls beyond capacity wait
// up to MaxWait for a slot and then fail with ErrBulkheadFull, so a burst
// of invocations cannot open an unbounded number of upstream connections.
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 8})
//	err := bh.Execute(ctx, func(ctx context.Context) error {
//	    res, err = svc.Profile(ctx)
//	    return err
//	})
package resilience
