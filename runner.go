package routecraft

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Route is a runnable instance of a RouteDefinition ("Route"): an
// abort signal, a logger, an in-flight handler set, a background task set,
// and a bound consumer. Patterned after a Task state machine
// (internal/task/task.go) — Created/Starting/Running/Stopping/Stopped — but
// simplified to the two states RouteCraft actually needs (not-started vs.
// aborted), since it exposes no separate "query current state" API.
type Route struct {
	def      RouteDefinition
	context  *Context
	logger   Logger
	consumer Consumer

	ctx    context.Context
	cancel context.CancelFunc

	startOnce sync.Once
	doneCh    chan struct{}

	abortOnce   sync.Once
	stoppedOnce sync.Once

	condMu   sync.Mutex
	cond     *sync.Cond
	inflight int64
	tasks    int64
}

func newRoute(def RouteDefinition, ctx *Context) *Route {
	rt := &Route{
		def:      def,
		context:  ctx,
		logger:   ctx.Logger.With("routeId", def.ID),
		consumer: newConsumer(def.Consumer, ctx, def.ID),
		doneCh:   make(chan struct{}),
	}
	rt.cond = sync.NewCond(&rt.condMu)
	return rt
}

// start runs the route's start sequence: assert not aborted,
// register the consumer, emit lifecycle events, subscribe the source. It
// blocks until the source's Subscribe call returns (naturally or via
// cancellation).
func (rt *Route) start(parentCtx context.Context) error {
	var startErr error
	rt.startOnce.Do(func() {
		if parentCtx.Err() != nil {
			startErr = newError(CodeRouteStart, "route %q cannot start: controller already aborted", rt.def.ID)
			close(rt.doneCh)
			return
		}
		rt.ctx, rt.cancel = context.WithCancel(parentCtx)

		rt.consumer.Register(rt.handleMessage)
		rt.context.Emit(EventRouteStarting, map[string]any{"routeId": rt.def.ID})
		rt.context.Emit(EventRouteStarted, map[string]any{"routeId": rt.def.ID})

		err := rt.def.Source.Subscribe(rt.ctx, rt.consumer.Submit)
		if err != nil && rt.ctx.Err() == nil {
			wrapped := wrapError(CodeSourceFailed, err)
			rt.logger.Warn("source failed", "error", wrapped)
			rt.context.emitError(wrapped, rt.def.ID, nil)
			rt.abort(wrapped)
			startErr = wrapped
		}
		close(rt.doneCh)
	})
	return startErr
}

// abort cancels the route's controller exactly once and emits
// routeStopping.
func (rt *Route) abort(reason error) {
	rt.abortOnce.Do(func() {
		rt.context.Emit(EventRouteStopping, map[string]any{"routeId": rt.def.ID, "reason": reason})
		if rt.cancel != nil {
			rt.cancel()
		}
	})
}

// drain waits until the source has returned and both the in-flight handler
// set and background task set are empty, then emits
// routeStopped exactly once. Uses a condition variable rather than
// sync.WaitGroup because tap tasks may be spawned after drain begins
// polling, which WaitGroup's Add/Wait contract forbids (see DESIGN.md).
func (rt *Route) drain() {
	if rt.ctx != nil {
		<-rt.doneCh
	}
	rt.condMu.Lock()
	for rt.inflight > 0 || rt.tasks > 0 {
		rt.cond.Wait()
	}
	rt.condMu.Unlock()

	rt.stoppedOnce.Do(func() {
		rt.context.Emit(EventRouteStopped, map[string]any{"routeId": rt.def.ID})
	})
}

func (rt *Route) trackInflight(delta int64) {
	rt.condMu.Lock()
	rt.inflight += delta
	rt.cond.Broadcast()
	rt.condMu.Unlock()
}

// trackTask registers fn as a background task (tap) that must complete
// before drain() returns/"Tap task tracking".
func (rt *Route) trackTask(fn func()) {
	rt.condMu.Lock()
	rt.tasks++
	rt.condMu.Unlock()
	rt.context.Emit(EventTapTaskStarted, map[string]any{"routeId": rt.def.ID})

	go func() {
		defer func() {
			rt.condMu.Lock()
			rt.tasks--
			rt.cond.Broadcast()
			rt.condMu.Unlock()
			rt.context.Emit(EventTapTaskStopped, map[string]any{"routeId": rt.def.ID})
		}()
		fn()
	}()
}

// workItem is one pending (exchange, remaining steps) pair in the FIFO
// work queue.
type workItem struct {
	exchange *Exchange
	steps    []StepDefinition
}

// handleMessage is the MessageHandler registered with the route's consumer:
// it builds the ingress exchange and drives the step loop to completion,
// returning the final exchange for that message (step loop).
func (rt *Route) handleMessage(ctx context.Context, body any, headers map[string]any) (*Exchange, error) {
	rt.trackInflight(1)
	defer rt.trackInflight(-1)

	ex := NewExchange(body, headers, "")
	ex.route = rt
	ex.context = rt.context
	ex.Logger = rt.logger.With("exchangeId", ex.ID, "correlationId", ex.CorrelationID())
	ex.Headers[HeaderRoute] = rt.def.ID

	queue := []workItem{{exchange: ex, steps: rt.def.Steps}}
	var last *Exchange

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if len(item.steps) == 0 {
			last = item.exchange
			rt.context.Emit(EventExchangeDone, map[string]any{"routeId": rt.def.ID})
			continue
		}

		step := item.steps[0]
		tail := item.steps[1:]
		item.exchange.SetOperation(step.Kind.String())

		enqueue := func(ex *Exchange, steps []StepDefinition) {
			queue = append(queue, workItem{exchange: ex, steps: steps})
		}

		if err := rt.executeStep(step, item.exchange, tail, &queue, enqueue); err != nil {
			wrapped := wrapError(CodeProcessFailed, err)
			item.exchange.Logger.Warn("step failed", "step", step.Kind.String(), "error", wrapped)
			rt.context.emitError(wrapped, rt.def.ID, item.exchange)
			continue
		}
	}

	return last, nil
}

func newGroupID() string { return uuid.NewString() }
