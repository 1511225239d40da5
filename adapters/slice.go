// Package adapters collects the small reference adapters used throughout
// the end-to-end scenarios and the demo daemon: a slice/scalar source, a
// periodic timer source, log/noop destinations, and an HTTP fetch
// destination. Each is grounded on a reference file covering the same shape
// of concern, generalized away from packet capture.
package adapters

import (
	"context"
	"reflect"
	"sync"

	"routecraft.dev/routecraft"
)

// Simple builds a `from(simple(value))` source. A slice value is emitted
// one element per message (see below for ordering); any other value is
// emitted once.
// Grounded on internal/source/file/source.go (a source that
// reads discrete records and hands each to the pipeline), generalized from
// file records to arbitrary Go values.
//
// Slice elements are submitted concurrently rather than one at a time: a
// batch consumer's Submit blocks its caller until its batch flushes, so a
// strictly serial loop could never have more than one message buffered and
// a size-triggered flush would never fire. Concurrent submission means the
// batch a size-triggered flush contains isn't necessarily the slice's first
// N elements in index order — only that every element is submitted exactly
// once and every flush is still observed.
func Simple(value any) routecraft.Source {
	return routecraft.SourceFunc(func(ctx context.Context, submit routecraft.MessageHandler) error {
		items, ok := toSlice(value)
		if !ok {
			_, err := submit(ctx, value, nil)
			return err
		}

		var wg sync.WaitGroup
		var mu sync.Mutex
		var firstErr error
		for _, item := range items {
			if ctx.Err() != nil {
				break
			}
			item := item
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := submit(ctx, item, nil); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if firstErr != nil {
			return firstErr
		}
		return ctx.Err()
	})
}

func toSlice(value any) ([]any, bool) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
