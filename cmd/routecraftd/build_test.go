package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"routecraft.dev/routecraft"
	"routecraft.dev/routecraft/config"
)

func TestAdapterRegistry_ResolvesKnownSources(t *testing.T) {
	reg := newAdapterRegistry(routecraft.NewContext(nil))

	_, err := reg.source(config.AdapterSpec{Name: "simple", Options: map[string]any{"value": "x"}})
	assert.NoError(t, err)
	_, err = reg.source(config.AdapterSpec{Name: "timer"})
	assert.NoError(t, err)
	_, err = reg.source(config.AdapterSpec{Name: "direct", Options: map[string]any{"endpoint": "orders"}})
	assert.NoError(t, err)
}

func TestAdapterRegistry_RejectsUnknownSource(t *testing.T) {
	reg := newAdapterRegistry(routecraft.NewContext(nil))
	_, err := reg.source(config.AdapterSpec{Name: "bogus"})
	assert.Error(t, err)
}

func TestAdapterRegistry_ResolvesKnownDestinations(t *testing.T) {
	reg := newAdapterRegistry(routecraft.NewContext(nil))

	for _, name := range []string{"log", "noop", "http", "direct"} {
		_, err := reg.destination(config.AdapterSpec{Name: name})
		assert.NoError(t, err, name)
	}
}

func TestAdapterRegistry_RejectsUnknownDestination(t *testing.T) {
	reg := newAdapterRegistry(routecraft.NewContext(nil))
	_, err := reg.destination(config.AdapterSpec{Name: "bogus"})
	assert.Error(t, err)
}

func TestBuildRoute_AssemblesDeclarativeSteps(t *testing.T) {
	reg := newAdapterRegistry(routecraft.NewContext(nil))
	spec := config.RouteSpec{
		ID:     "r1",
		Source: config.AdapterSpec{Name: "simple", Options: map[string]any{"value": "x"}},
		Steps: []config.StepSpec{
			{Kind: "to", Adapter: config.AdapterSpec{Name: "log"}},
		},
	}
	def, err := buildRoute(reg, spec)
	assert.NoError(t, err)
	assert.Equal(t, "r1", def.ID)
	if assert.Len(t, def.Steps, 1) {
		assert.Equal(t, routecraft.StepTo, def.Steps[0].Kind)
	}
}

func TestBuildRoute_FailsOnUnknownSourceAdapter(t *testing.T) {
	reg := newAdapterRegistry(routecraft.NewContext(nil))
	_, err := buildRoute(reg, config.RouteSpec{ID: "r1", Source: config.AdapterSpec{Name: "bogus"}})
	assert.Error(t, err)
}

func TestBuildRoute_FailsOnUnsupportedStepKind(t *testing.T) {
	reg := newAdapterRegistry(routecraft.NewContext(nil))
	spec := config.RouteSpec{
		ID:     "r1",
		Source: config.AdapterSpec{Name: "timer"},
		Steps:  []config.StepSpec{{Kind: "transform"}},
	}
	_, err := buildRoute(reg, spec)
	assert.Error(t, err)
}

func TestBuildRoute_AppliesBatchConsumer(t *testing.T) {
	reg := newAdapterRegistry(routecraft.NewContext(nil))
	spec := config.RouteSpec{
		ID:       "r1",
		Source:   config.AdapterSpec{Name: "timer"},
		Consumer: config.ConsumerSpecYAML{Kind: "batch", BatchSize: 5, BatchTimeMs: 100},
	}
	def, err := buildRoute(reg, spec)
	assert.NoError(t, err)
	assert.Equal(t, routecraft.ConsumerBatch, def.Consumer.Kind)
	assert.Equal(t, 5, def.Consumer.BatchSize)
}

func TestBuildRoute_RejectsUnknownConsumerKind(t *testing.T) {
	reg := newAdapterRegistry(routecraft.NewContext(nil))
	spec := config.RouteSpec{
		ID:       "r1",
		Source:   config.AdapterSpec{Name: "timer"},
		Consumer: config.ConsumerSpecYAML{Kind: "bogus"},
	}
	_, err := buildRoute(reg, spec)
	assert.Error(t, err)
}
