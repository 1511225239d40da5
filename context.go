package routecraft

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"routecraft.dev/routecraft/internal/eventbus"
)

// Context event names.
const (
	EventContextStarting = "contextStarting"
	EventContextStarted  = "contextStarted"
	EventContextStopping = "contextStopping"
	EventContextStopped  = "contextStopped"
	EventRouteRegistered = "routeRegistered"
	EventRouteStarting   = "routeStarting"
	EventRouteStarted    = "routeStarted"
	EventRouteStopping   = "routeStopping"
	EventRouteStopped    = "routeStopped"
	EventError           = "error"
	EventExchangeDone    = "exchangeDone"
	EventBatchFlushed    = "batchFlushed"
	EventTapTaskStarted  = "tapTaskStarted"
	EventTapTaskStopped  = "tapTaskStopped"
	EventDirectSendStart = "directSendStart"
	EventDirectSendEnd   = "directSendEnd"
)

// ErrorDetails is the payload of an "error" event.
type ErrorDetails struct {
	Error    error
	RouteID  string
	Exchange *Exchange
}

// Context owns routes, a typed store, the event bus, and the
// start/stop lifecycle. The zero value is not usable; use
// NewContext.
type Context struct {
	ID     string
	Logger Logger

	mu      sync.Mutex
	routes  map[string]*Route
	order   []string // registration order, for deterministic iteration
	store   map[string]any
	bus     *eventbus.Bus
	started bool
	stopped bool
}

// NewContext creates an empty, unstarted context.
func NewContext(logger Logger) *Context {
	if logger == nil {
		logger = noopLogger{}
	}
	c := &Context{
		ID:     uuid.NewString(),
		routes: make(map[string]*Route),
		store:  make(map[string]any),
	}
	c.Logger = logger.With("contextId", c.ID)
	c.bus = eventbus.New(c.onHandlerError)
	return c
}

func (c *Context) onHandlerError(name string, err error, ev eventbus.Event) {
	c.Logger.Warn("event handler failed", "event", name, "error", err)
	if name == EventError {
		return // prevents error-handling loops
	}
	c.emitError(err, "", nil)
}

// RegisterRoutes adds one or more route definitions. Fails without mutating
// state if any id collides within the batch or with an existing route, or
// if a definition lacks a source.
func (c *Context) RegisterRoutes(defs ...RouteDefinition) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if d.ID == "" || seen[d.ID] || c.routes[d.ID] != nil {
			return newError(CodeDuplicateRoute, "duplicate route id %q", d.ID)
		}
		if err := d.validate(); err != nil {
			return err
		}
		seen[d.ID] = true
	}

	for _, d := range defs {
		rt := newRoute(d, c)
		c.routes[d.ID] = rt
		c.order = append(c.order, d.ID)
		c.emitLocked(EventRouteRegistered, d.ID, map[string]any{"routeId": d.ID})
	}
	return nil
}

// GetRouteByID returns the runtime route instance, or nil.
func (c *Context) GetRouteByID(id string) *Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.routes[id]
}

// GetStore reads a namespaced store key.
func (c *Context) GetStore(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.store[key]
	return v, ok
}

// SetStore writes a namespaced store key.
func (c *Context) SetStore(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = value
}

// On registers a handler for name, returning a disposer.
func (c *Context) On(name string, handler func(eventbus.Event) error) func() {
	return eventbus.Disposer(c.bus.On(name, handler))
}

// Emit dispatches an event synchronously, in handler-registration order.
func (c *Context) Emit(name string, details any) {
	c.mu.Lock()
	id := c.ID
	c.mu.Unlock()
	c.bus.Emit(eventbus.Event{Name: name, TS: time.Now(), Context: id, Details: details})
}

func (c *Context) emitLocked(name string, routeID string, details any) {
	c.bus.Emit(eventbus.Event{Name: name, TS: time.Now(), Context: c.ID, Details: details})
}

func (c *Context) emitError(err error, routeID string, ex *Exchange) {
	c.Emit(EventError, ErrorDetails{Error: err, RouteID: routeID, Exchange: ex})
}

// Start launches every registered route concurrently. If every
// route finishes without fault, Start calls Stop itself; otherwise it
// returns with the context still live so indefinite routes continue
// running.
func (c *Context) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return newError(CodeContextStart, "context %s already started", c.ID)
	}
	c.started = true
	routes := make([]*Route, 0, len(c.order))
	for _, id := range c.order {
		routes = append(routes, c.routes[id])
	}
	c.mu.Unlock()

	c.Emit(EventContextStarting, nil)
	c.Emit(EventContextStarted, nil)

	var wg sync.WaitGroup
	results := make([]error, len(routes))
	for i, rt := range routes {
		wg.Add(1)
		go func(i int, rt *Route) {
			defer wg.Done()
			results[i] = rt.start(ctx)
		}(i, rt)
	}
	wg.Wait()

	allClean := true
	for _, err := range results {
		if err != nil {
			allClean = false
		}
	}
	if allClean {
		return c.Stop()
	}
	return nil
}

// Stop aborts every route, awaits drain, and emits terminal events.
// Repeated calls are no-ops (invariant 4).
func (c *Context) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	routes := make([]*Route, 0, len(c.order))
	for _, id := range c.order {
		routes = append(routes, c.routes[id])
	}
	c.mu.Unlock()

	c.Emit(EventContextStopping, nil)
	for _, rt := range routes {
		rt.abort(fmt.Errorf("context.stop()"))
	}
	for _, rt := range routes {
		rt.drain()
	}
	c.Emit(EventContextStopped, nil)
	return nil
}
