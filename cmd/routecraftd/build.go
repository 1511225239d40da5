package main

import (
	"fmt"

	"routecraft.dev/routecraft"
	"routecraft.dev/routecraft/config"
)

// buildRoute assembles one routecraft.RouteDefinition from its declarative
// config.RouteSpec, resolving every named adapter via reg. Patterned after a
// conventional internal/config -> internal/pipeline assembly path
// (internal/pipeline/builder.go turns a TaskConfig into an ordered stage
// list the same way this turns a RouteSpec into an ordered step list).
func buildRoute(reg *adapterRegistry, spec config.RouteSpec) (routecraft.RouteDefinition, error) {
	source, err := reg.source(spec.Source)
	if err != nil {
		return routecraft.RouteDefinition{}, fmt.Errorf("route %q: source: %w", spec.ID, err)
	}

	steps := make([]routecraft.StepDefinition, 0, len(spec.Steps))
	for i, s := range spec.Steps {
		step, err := buildStep(reg, s)
		if err != nil {
			return routecraft.RouteDefinition{}, fmt.Errorf("route %q: step[%d]: %w", spec.ID, i, err)
		}
		steps = append(steps, step)
	}

	def := routecraft.NewRoute(spec.ID, source, steps...)

	switch spec.Consumer.Kind {
	case "batch":
		def = def.WithConsumer(routecraft.BatchConsumerSpec(spec.Consumer.BatchSize, spec.Consumer.BatchTimeMs, nil))
	case "", "simple":
		// default consumer from NewRoute already applies
	default:
		return routecraft.RouteDefinition{}, fmt.Errorf("route %q: unknown consumer kind %q", spec.ID, spec.Consumer.Kind)
	}

	return def, nil
}

func buildStep(reg *adapterRegistry, s config.StepSpec) (routecraft.StepDefinition, error) {
	switch s.Kind {
	case "to":
		d, err := reg.destination(s.Adapter)
		if err != nil {
			return routecraft.StepDefinition{}, err
		}
		return routecraft.To(d), nil
	case "tap":
		d, err := reg.destination(s.Adapter)
		if err != nil {
			return routecraft.StepDefinition{}, err
		}
		return routecraft.Tap(d), nil
	case "enrich":
		d, err := reg.destination(s.Adapter)
		if err != nil {
			return routecraft.StepDefinition{}, err
		}
		return routecraft.Enrich(d, nil), nil
	case "aggregate":
		return routecraft.Aggregate(nil), nil
	default:
		return routecraft.StepDefinition{}, fmt.Errorf("unsupported declarative step kind %q (process/transform/filter/validate/split/header steps require programmatic RouteDefinition construction)", s.Kind)
	}
}
