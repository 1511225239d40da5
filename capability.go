package routecraft

import "context"

// Capability surface. Every adapter satisfies exactly one of
// these narrow interfaces. Each has a FooFunc adapter — the http.HandlerFunc
// pattern — so a plain function and a rich object both implement the same
// interface; there is no separate "accept either shape" branch anywhere
// downstream (see DESIGN.md, "capability function or rich object").

// MessageHandler is what a Source or a Consumer submits into the step loop:
// given a raw message and optional headers, run it through the route and
// return the final exchange.
type MessageHandler func(ctx context.Context, body any, headers map[string]any) (*Exchange, error)

// Source is the `from` route-level capability. Subscribe calls submit once
// per inbound message and returns when the source is exhausted or ctx is
// cancelled, whichever comes first.
type Source interface {
	Subscribe(ctx context.Context, submit MessageHandler) error
}

type SourceFunc func(ctx context.Context, submit MessageHandler) error

func (f SourceFunc) Subscribe(ctx context.Context, submit MessageHandler) error {
	return f(ctx, submit)
}

// Processor backs the `process` step: may replace body and headers.
type Processor interface {
	Process(ex *Exchange) (*Exchange, error)
}

type ProcessorFunc func(ex *Exchange) (*Exchange, error)

func (f ProcessorFunc) Process(ex *Exchange) (*Exchange, error) { return f(ex) }

// Transformer backs the `transform` step: body-only, headers/id preserved.
type Transformer interface {
	Transform(body any) (any, error)
}

type TransformerFunc func(body any) (any, error)

func (f TransformerFunc) Transform(body any) (any, error) { return f(body) }

// Destination backs `to`, `tap`, and the send half of `enrich`. A nil result
// means "void" — the exchange body is left unchanged; a non-nil result
// replaces it (see DESIGN.md "`.to` replacement rule").
type Destination interface {
	Send(ex *Exchange) (any, error)
}

type DestinationFunc func(ex *Exchange) (any, error)

func (f DestinationFunc) Send(ex *Exchange) (any, error) { return f(ex) }

// Filter backs the `filter` step: false drops the exchange. Errors are
// fail-open — handled by the runner, not the capability.
type Filter interface {
	Filter(ex *Exchange) (bool, error)
}

type FilterFunc func(ex *Exchange) (bool, error)

func (f FilterFunc) Filter(ex *Exchange) (bool, error) { return f(ex) }

// Splitter backs the `split` step: one body becomes a sequence of bodies.
type Splitter interface {
	Split(body any) ([]any, error)
}

type SplitterFunc func(body any) ([]any, error)

func (f SplitterFunc) Split(body any) ([]any, error) { return f(body) }

// Aggregator backs the `aggregate` step (sequence of exchanges -> one
// exchange) and also the merge half of `enrich` ((original, result) ->
// original'), via the two distinct types below.
type Aggregator interface {
	Aggregate(exchanges []*Exchange) (*Exchange, error)
}

type AggregatorFunc func(exchanges []*Exchange) (*Exchange, error)

func (f AggregatorFunc) Aggregate(exchanges []*Exchange) (*Exchange, error) { return f(exchanges) }

// EnrichMerger merges a destination's result back onto the original
// exchange body. The default (DefaultEnrichMerger) implements the
// shallow-merge rule.
type EnrichMerger interface {
	Merge(original any, result any) (any, error)
}

type EnrichMergerFunc func(original any, result any) (any, error)

func (f EnrichMergerFunc) Merge(original any, result any) (any, error) { return f(original, result) }

// HeaderSetter backs the `header` step: computes one header value per
// exchange (or a constant, via HeaderConst).
type HeaderSetter interface {
	SetHeader(ex *Exchange) (any, error)
}

type HeaderSetterFunc func(ex *Exchange) (any, error)

func (f HeaderSetterFunc) SetHeader(ex *Exchange) (any, error) { return f(ex) }

// HeaderConst wraps a fixed value as a HeaderSetter.
func HeaderConst(value any) HeaderSetter {
	return HeaderSetterFunc(func(*Exchange) (any, error) { return value, nil })
}

// SchemaResult is the standard-schema protocol result.
type SchemaResult struct {
	Value  any
	Issues []string
}

func (r SchemaResult) Failed() bool { return len(r.Issues) > 0 }

// StandardSchema backs the `validate` step and direct-adapter body/header
// validation.
type StandardSchema interface {
	Validate(value any) (SchemaResult, error)
}

type StandardSchemaFunc func(value any) (SchemaResult, error)

func (f StandardSchemaFunc) Validate(value any) (SchemaResult, error) { return f(value) }
