package main

import (
	"fmt"
	"time"

	"routecraft.dev/routecraft"
	"routecraft.dev/routecraft/adapters"
	"routecraft.dev/routecraft/config"
	"routecraft.dev/routecraft/direct"
)

// adapterRegistry resolves the named adapters a config.RouteSpec references,
// the way an internal/plugin.Registry resolves plugin names to
// factories (internal/plugin/registry.go), generalized from a single
// plugin-type namespace to RouteCraft's source/destination capability
// surface.
type adapterRegistry struct {
	rcCtx *routecraft.Context
}

func newAdapterRegistry(rcCtx *routecraft.Context) *adapterRegistry {
	return &adapterRegistry{rcCtx: rcCtx}
}

func (r *adapterRegistry) source(spec config.AdapterSpec) (routecraft.Source, error) {
	switch spec.Name {
	case "simple":
		return adapters.Simple(spec.Options["value"]), nil
	case "timer":
		periodMs, _ := spec.Options["period_ms"].(int)
		return adapters.Timer(adapters.TimerOptions{Period: time.Duration(periodMs) * time.Millisecond}), nil
	case "direct":
		endpoint, _ := spec.Options["endpoint"].(string)
		return direct.Source(r.rcCtx, direct.Options{Endpoint: endpoint}), nil
	default:
		return nil, fmt.Errorf("unknown source adapter %q", spec.Name)
	}
}

func (r *adapterRegistry) destination(spec config.AdapterSpec) (routecraft.Destination, error) {
	switch spec.Name {
	case "log":
		return adapters.Log(), nil
	case "noop":
		return adapters.Noop(), nil
	case "http":
		url, _ := spec.Options["url"].(string)
		method, _ := spec.Options["method"].(string)
		return adapters.HTTP(adapters.HTTPOptions{URL: url, Method: method}), nil
	case "direct":
		endpoint, _ := spec.Options["endpoint"].(string)
		return direct.Destination(r.rcCtx, direct.Options{Endpoint: endpoint}), nil
	default:
		return nil, fmt.Errorf("unknown destination adapter %q", spec.Name)
	}
}
