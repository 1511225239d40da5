package routecraft

import (
	"context"
	"sync"
	"time"
)

// Consumer bridges source ingress and the step loop. Register
// is called once by the route runner at start; Submit is what the source
// calls per inbound message.
type Consumer interface {
	Register(handler MessageHandler)
	Submit(ctx context.Context, body any, headers map[string]any) (*Exchange, error)
}

func newConsumer(spec ConsumerSpec, ctx *Context, routeID string) Consumer {
	switch spec.Kind {
	case ConsumerBatch:
		return newBatchConsumer(spec, ctx, routeID)
	default:
		return &SimpleConsumer{}
	}
}

// SimpleConsumer immediately forwards each message to the registered
// handler and returns its result — the per-message "Promise" the source
// awaits is just this call.
type SimpleConsumer struct {
	handler MessageHandler
}

func (c *SimpleConsumer) Register(handler MessageHandler) { c.handler = handler }

func (c *SimpleConsumer) Submit(ctx context.Context, body any, headers map[string]any) (*Exchange, error) {
	return c.handler(ctx, body, headers)
}

// BatchMerger merges a batch of buffered messages into one, defaulting to
// "concatenate bodies into an ordered sequence; headers shallow-merge,
// later wins" unless the caller supplies its own.
type BatchMerger func(bodies []any, headers []map[string]any) (mergedBody any, mergedHeaders map[string]any)

// DefaultBatchMerger implements the default merge policy: concatenate
// bodies in order, shallow-merge headers with later entries winning.
func DefaultBatchMerger(bodies []any, headers []map[string]any) (any, map[string]any) {
	merged := make(map[string]any)
	for _, h := range headers {
		for k, v := range h {
			merged[k] = v
		}
	}
	out := make([]any, len(bodies))
	copy(out, bodies)
	return out, merged
}

type batchItem struct {
	body    any
	headers map[string]any
	resCh   chan batchResult
}

type batchResult struct {
	ex  *Exchange
	err error
}

// BatchConsumer buffers messages and flushes on size or a time window,
// whichever comes first, invoking the handler once per flush and resolving
// every buffered caller with the same final exchange. Grounded
// on a ReporterWrapper-style batching/fallback pattern
// (internal/task/reporter_wrapper.go).
type BatchConsumer struct {
	size    int
	window  time.Duration
	merger  BatchMerger
	handler MessageHandler
	ctx     *Context
	routeID string

	mu    sync.Mutex
	buf   []batchItem
	timer *time.Timer
}

func newBatchConsumer(spec ConsumerSpec, ctx *Context, routeID string) *BatchConsumer {
	merger := spec.BatchMerger
	if merger == nil {
		merger = DefaultBatchMerger
	}
	return &BatchConsumer{
		size:    spec.BatchSize,
		window:  time.Duration(spec.BatchTimeMs) * time.Millisecond,
		merger:  merger,
		ctx:     ctx,
		routeID: routeID,
	}
}

func (c *BatchConsumer) Register(handler MessageHandler) { c.handler = handler }

func (c *BatchConsumer) Submit(ctx context.Context, body any, headers map[string]any) (*Exchange, error) {
	item := batchItem{body: body, headers: headers, resCh: make(chan batchResult, 1)}

	c.mu.Lock()
	c.buf = append(c.buf, item)
	first := len(c.buf) == 1
	full := len(c.buf) >= c.size
	if first && !full {
		c.timer = time.AfterFunc(c.window, func() { c.flush(ctx) })
	}
	c.mu.Unlock()

	if full {
		c.flush(ctx)
	}

	select {
	case r := <-item.resCh:
		return r.ex, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *BatchConsumer) flush(ctx context.Context) {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	items := c.buf
	c.buf = nil
	c.mu.Unlock()

	if len(items) == 0 {
		return
	}
	if c.ctx != nil {
		c.ctx.Emit(EventBatchFlushed, map[string]any{"routeId": c.routeID, "size": len(items)})
	}

	bodies := make([]any, len(items))
	headers := make([]map[string]any, len(items))
	for i, it := range items {
		bodies[i] = it.body
		headers[i] = it.headers
	}
	mergedBody, mergedHeaders := c.merger(bodies, headers)

	ex, err := c.handler(ctx, mergedBody, mergedHeaders)
	for _, it := range items {
		it.resCh <- batchResult{ex: ex, err: err}
	}
}
