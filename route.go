package routecraft

// StepKind tags a step definition by its operation ("Step").
type StepKind int

const (
	StepProcess StepKind = iota
	StepTransform
	StepTo
	StepTap
	StepFilter
	StepValidate
	StepSplit
	StepAggregate
	StepEnrich
	StepHeader
)

func (k StepKind) String() string {
	switch k {
	case StepProcess:
		return "process"
	case StepTransform:
		return "transform"
	case StepTo:
		return "to"
	case StepTap:
		return "tap"
	case StepFilter:
		return "filter"
	case StepValidate:
		return "validate"
	case StepSplit:
		return "split"
	case StepAggregate:
		return "aggregate"
	case StepEnrich:
		return "enrich"
	case StepHeader:
		return "header"
	default:
		return "unknown"
	}
}

// StepDefinition holds one entry of a route's ordered step chain. adapter
// holds whichever capability the kind requires; merger is only populated
// for StepAggregate (optional custom Aggregator) and StepEnrich (optional
// custom EnrichMerger). headerKey is only populated for StepHeader.
type StepDefinition struct {
	Kind      StepKind
	adapter   any
	merger    any
	headerKey string
}

// Process adds a `process` step.
func Process(p Processor) StepDefinition { return StepDefinition{Kind: StepProcess, adapter: p} }

// ProcessFunc adds a `process` step from a bare function.
func ProcessFunc(fn func(ex *Exchange) (*Exchange, error)) StepDefinition {
	return Process(ProcessorFunc(fn))
}

// Transform adds a `transform` step.
func Transform(t Transformer) StepDefinition { return StepDefinition{Kind: StepTransform, adapter: t} }

// TransformFunc adds a `transform` step from a bare function.
func TransformFunc(fn func(body any) (any, error)) StepDefinition {
	return Transform(TransformerFunc(fn))
}

// To adds a `to` destination step. One `to` per route is the conventional
// pattern; nothing in the engine enforces it (the DSL lint rule that does
// is out of scope).
func To(d Destination) StepDefinition { return StepDefinition{Kind: StepTo, adapter: d} }

func ToFunc(fn func(ex *Exchange) (any, error)) StepDefinition { return To(DestinationFunc(fn)) }

// Tap adds a fire-and-forget `tap` step.
func Tap(d Destination) StepDefinition { return StepDefinition{Kind: StepTap, adapter: d} }

func TapFunc(fn func(ex *Exchange) (any, error)) StepDefinition { return Tap(DestinationFunc(fn)) }

// Filter adds a `filter` step (fail-open on adapter error).
func Filter(f Filter) StepDefinition { return StepDefinition{Kind: StepFilter, adapter: f} }

func FilterFuncStep(fn func(ex *Exchange) (bool, error)) StepDefinition {
	return Filter(FilterFunc(fn))
}

// Validate adds a `validate` step (fail-closed on schema failure).
func Validate(s StandardSchema) StepDefinition { return StepDefinition{Kind: StepValidate, adapter: s} }

// Split adds a `split` step.
func Split(s Splitter) StepDefinition { return StepDefinition{Kind: StepSplit, adapter: s} }

func SplitFunc(fn func(body any) ([]any, error)) StepDefinition { return Split(SplitterFunc(fn)) }

// Aggregate adds an `aggregate` step. agg is optional; nil uses
// DefaultAggregator.
func Aggregate(agg Aggregator) StepDefinition {
	return StepDefinition{Kind: StepAggregate, merger: agg}
}

// Enrich adds an `enrich` step: runs d as a destination, then merges the
// result with merger (nil uses DefaultEnrichMerger).
func Enrich(d Destination, merger EnrichMerger) StepDefinition {
	return StepDefinition{Kind: StepEnrich, adapter: d, merger: merger}
}

// Header adds a `header` step writing exchange.Headers[key].
func Header(key string, setter HeaderSetter) StepDefinition {
	return StepDefinition{Kind: StepHeader, adapter: setter, headerKey: key}
}

// ConsumerKind selects the Simple or Batch consumer.
type ConsumerKind int

const (
	ConsumerSimple ConsumerKind = iota
	ConsumerBatch
)

// ConsumerSpec declares which consumer a route uses and its options.
type ConsumerSpec struct {
	Kind          ConsumerKind
	BatchSize     int    // default 1000
	BatchTimeMs   int    // default 10_000
	BatchMerger   BatchMerger
}

// SimpleConsumerSpec is the default consumer spec.
func SimpleConsumerSpec() ConsumerSpec { return ConsumerSpec{Kind: ConsumerSimple} }

// BatchConsumerSpec builds a batch consumer spec, applying defaults for
// any zero-valued field.
func BatchConsumerSpec(size, timeMs int, merger BatchMerger) ConsumerSpec {
	if size <= 0 {
		size = 1000
	}
	if timeMs <= 0 {
		timeMs = 10_000
	}
	return ConsumerSpec{Kind: ConsumerBatch, BatchSize: size, BatchTimeMs: timeMs, BatchMerger: merger}
}

// RouteDefinition is the declarative description of a route.
type RouteDefinition struct {
	ID       string
	Source   Source
	Steps    []StepDefinition
	Consumer ConsumerSpec
}

// NewRoute builds a RouteDefinition with a SimpleConsumer unless overridden
// via WithConsumer.
func NewRoute(id string, source Source, steps ...StepDefinition) RouteDefinition {
	return RouteDefinition{ID: id, Source: source, Steps: steps, Consumer: SimpleConsumerSpec()}
}

// WithConsumer returns a copy of the definition using the given consumer spec.
func (d RouteDefinition) WithConsumer(spec ConsumerSpec) RouteDefinition {
	d.Consumer = spec
	return d
}

func (d RouteDefinition) validate() error {
	if d.Source == nil {
		return newError(CodeRouteMissingSource, "route %q has no source", d.ID)
	}
	return nil
}
