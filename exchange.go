package routecraft

import (
	"sync"

	"github.com/google/uuid"
)

// Reserved exchange header keys ("Reserved header keys").
const (
	HeaderOperation     = "routecraft.operation"
	HeaderRoute         = "routecraft.route"
	HeaderCorrelationID = "routecraft.correlation_id"
	HeaderSplitHierarchy = "routecraft.split_hierarchy"
	HeaderTimerTime      = "routecraft.timer.time"
	HeaderTimerFiredTime = "routecraft.timer.firedTime"
	HeaderTimerPeriodMs  = "routecraft.timer.periodMs"
	HeaderTimerCounter   = "routecraft.timer.counter"
	HeaderTimerNextRun   = "routecraft.timer.nextRun"
)

// Reserved context store keys ("Reserved store keys").
const (
	StoreDirectChannels = "routecraft.adapter.direct.store"
	StoreDirectOptions  = "routecraft.adapter.direct.options"
	StoreDirectRegistry = "routecraft.adapter.direct.registry"
)

// Logger is the capability the host supplies. The core never
// constructs one itself; the logging package provides a slog-backed
// implementation.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	With(args ...any) Logger
}

// noopLogger is used when a route or context is constructed without an
// explicit logger.
type noopLogger struct{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}
func (n noopLogger) With(...any) Logger { return n }

// Exchange is the unit of work traveling through a route.
//
// Headers values are one of: string, int, bool, nil (undefined), or
// []string (ordered sequence). Route and Context are plain, non-owning
// pointers — Go's GC makes the id-indexed-registry workaround a non-GC
// host would need unnecessary (see DESIGN.md).
type Exchange struct {
	ID      string
	Body    any
	Headers map[string]any
	Logger  Logger

	route   *Route
	context *Context

	mu sync.Mutex // guards Headers for the rare cross-goroutine read (tap snapshot, event payloads)
}

// NewExchange creates a fresh exchange at ingress. correlationID is assigned
// once and must be propagated unchanged by every derived exchange.
func NewExchange(body any, headers map[string]any, correlationID string) *Exchange {
	h := make(map[string]any, len(headers)+1)
	for k, v := range headers {
		h[k] = v
	}
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	h[HeaderCorrelationID] = correlationID
	return &Exchange{
		ID:      uuid.NewString(),
		Body:    body,
		Headers: h,
		Logger:  noopLogger{},
	}
}

// Route returns the owning route, or nil if the exchange is free-standing
// (e.g. constructed directly in a test).
func (e *Exchange) Route() *Route { return e.route }

// Context returns the owning context, or nil.
func (e *Exchange) Context() *Context { return e.context }

// CorrelationID returns the correlation id assigned at ingress.
func (e *Exchange) CorrelationID() string {
	v, _ := e.Headers[HeaderCorrelationID].(string)
	return v
}

// SetOperation stamps the header reflecting the step currently executing.
func (e *Exchange) SetOperation(op string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Headers[HeaderOperation] = op
}

// SplitHierarchy returns the current split-group stack (outermost first).
func (e *Exchange) SplitHierarchy() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, _ := e.Headers[HeaderSplitHierarchy].([]string)
	out := make([]string, len(v))
	copy(out, v)
	return out
}

// pushSplitGroup appends a group id; only Split pushes onto the hierarchy.
func (e *Exchange) pushSplitGroup(groupID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, _ := e.Headers[HeaderSplitHierarchy].([]string)
	v = append(append([]string{}, v...), groupID)
	e.Headers[HeaderSplitHierarchy] = v
}

// popSplitGroup removes the tail group id (Aggregate only); deletes the
// header entirely once the stack empties.
func (e *Exchange) popSplitGroup() (groupID string, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, _ := e.Headers[HeaderSplitHierarchy].([]string)
	if len(v) == 0 {
		return "", false
	}
	groupID = v[len(v)-1]
	rest := v[:len(v)-1]
	if len(rest) == 0 {
		delete(e.Headers, HeaderSplitHierarchy)
	} else {
		e.Headers[HeaderSplitHierarchy] = rest
	}
	return groupID, true
}

// clone copies headers (with []string values copied element by element)
// into a fresh exchange sharing correlation id, used by Split children and
// Tap snapshots. newBody is used as given; it is not copied, so a Tap
// snapshot shares its body value with the original exchange.
func (e *Exchange) clone(newBody any, extraHeaders map[string]any) *Exchange {
	e.mu.Lock()
	h := make(map[string]any, len(e.Headers)+len(extraHeaders))
	for k, v := range e.Headers {
		switch vv := v.(type) {
		case []string:
			cp := make([]string, len(vv))
			copy(cp, vv)
			h[k] = cp
		default:
			h[k] = v
		}
	}
	e.mu.Unlock()
	for k, v := range extraHeaders {
		h[k] = v
	}
	return &Exchange{
		ID:      uuid.NewString(),
		Body:    newBody,
		Headers: h,
		Logger:  e.Logger,
		route:   e.route,
		context: e.context,
	}
}

// HeaderString reads a string-typed header, returning "" if absent or of a
// different type.
func HeaderString(e *Exchange, key string) string {
	v, _ := e.Headers[key].(string)
	return v
}

// HeaderInt reads an int-typed header.
func HeaderInt(e *Exchange, key string) (int, bool) {
	v, ok := e.Headers[key].(int)
	return v, ok
}

// HeaderBool reads a bool-typed header.
func HeaderBool(e *Exchange, key string) (bool, bool) {
	v, ok := e.Headers[key].(bool)
	return v, ok
}

// HeaderStringSlice reads an ordered-sequence-of-string header.
func HeaderStringSlice(e *Exchange, key string) []string {
	v, _ := e.Headers[key].([]string)
	return v
}
