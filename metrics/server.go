package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"routecraft.dev/routecraft"
	"routecraft.dev/routecraft/internal/eventbus"
)

// Server exposes the Prometheus registry over HTTP, patterned after a
// conventional internal/metrics/server.go layout.
type Server struct {
	addr   string
	path   string
	logger routecraft.Logger
	server *http.Server
}

// NewServer creates an unstarted metrics server.
func NewServer(addr, path string, logger routecraft.Logger) *Server {
	if path == "" {
		path = "/metrics"
	}
	return &Server{addr: addr, path: path, logger: logger}
}

// Start launches the HTTP listener in a background goroutine.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.Handle(s.path, promhttp.Handler())

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting metrics server", "addr", s.addr, "path", s.path)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics server error", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	return nil
}

// Wire subscribes to a Context's event bus and feeds the package-level
// counters/gauges from route lifecycle and error events: the bridge
// between the engine's structured events and the metrics surface.
func Wire(ctx *routecraft.Context) {
	ctx.On(routecraft.EventRouteStarted, func(ev eventbus.Event) error {
		RoutesStartedTotal.WithLabelValues(routeID(ev)).Inc()
		return nil
	})
	ctx.On(routecraft.EventRouteStopped, func(ev eventbus.Event) error {
		RoutesStoppedTotal.WithLabelValues(routeID(ev)).Inc()
		return nil
	})
	ctx.On(routecraft.EventError, func(ev eventbus.Event) error {
		details, ok := ev.Details.(routecraft.ErrorDetails)
		if !ok {
			return nil
		}
		code := "unknown"
		if rce, ok := details.Error.(*routecraft.RouteCraftError); ok {
			code = string(rce.Code)
		}
		StepErrorsTotal.WithLabelValues(details.RouteID, code).Inc()
		return nil
	})
	ctx.On(routecraft.EventExchangeDone, func(ev eventbus.Event) error {
		ExchangesProcessedTotal.WithLabelValues(routeID(ev)).Inc()
		return nil
	})
	ctx.On(routecraft.EventBatchFlushed, func(ev eventbus.Event) error {
		m, ok := ev.Details.(map[string]any)
		if !ok {
			return nil
		}
		rid, _ := m["routeId"].(string)
		size, _ := m["size"].(int)
		BatchFlushSize.WithLabelValues(rid).Observe(float64(size))
		return nil
	})
	ctx.On(routecraft.EventTapTaskStarted, func(ev eventbus.Event) error {
		TapTasksInFlight.WithLabelValues(routeID(ev)).Inc()
		return nil
	})
	ctx.On(routecraft.EventTapTaskStopped, func(ev eventbus.Event) error {
		TapTasksInFlight.WithLabelValues(routeID(ev)).Dec()
		return nil
	})
	ctx.On(routecraft.EventDirectSendStart, func(ev eventbus.Event) error {
		DirectChannelDepth.WithLabelValues(endpoint(ev)).Inc()
		return nil
	})
	ctx.On(routecraft.EventDirectSendEnd, func(ev eventbus.Event) error {
		DirectChannelDepth.WithLabelValues(endpoint(ev)).Dec()
		return nil
	})
}

func routeID(ev eventbus.Event) string {
	m, ok := ev.Details.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := m["routeId"].(string)
	return id
}

func endpoint(ev eventbus.Event) string {
	m, ok := ev.Details.(map[string]any)
	if !ok {
		return ""
	}
	ep, _ := m["endpoint"].(string)
	return ep
}
