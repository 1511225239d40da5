package routecraft

import "fmt"

// executeStep dispatches to the step kind's execution contract.
// It returns an error only when the branch's failure must be logged/
// emitted and the branch terminated; steps that handle their own failure
// policy (filter's fail-open, tap's detached failure) return nil even when
// their adapter errored.
func (rt *Route) executeStep(step StepDefinition, ex *Exchange, tail []StepDefinition, queue *[]workItem, enqueue func(*Exchange, []StepDefinition)) error {
	switch step.Kind {
	case StepProcess:
		return execProcess(step, ex, tail, enqueue)
	case StepTransform:
		return execTransform(step, ex, tail, enqueue)
	case StepTo:
		return execTo(step, ex, tail, enqueue)
	case StepTap:
		return rt.execTap(step, ex, tail, enqueue)
	case StepFilter:
		return execFilter(step, ex, tail, enqueue)
	case StepValidate:
		return execValidate(step, ex, tail, enqueue)
	case StepSplit:
		return execSplit(step, ex, tail, enqueue)
	case StepAggregate:
		return execAggregate(step, ex, tail, queue, enqueue)
	case StepEnrich:
		return execEnrich(step, ex, tail, enqueue)
	case StepHeader:
		return execHeader(step, ex, tail, enqueue)
	default:
		return newError(CodeInvalidOperation, "unknown step kind %v", step.Kind)
	}
}

func execProcess(step StepDefinition, ex *Exchange, tail []StepDefinition, enqueue func(*Exchange, []StepDefinition)) error {
	p := step.adapter.(Processor)
	result, err := p.Process(ex)
	if err != nil {
		return wrapError(CodeProcessFailed, err)
	}
	if result != nil {
		// Copy fields back onto the same exchange to preserve identity
		// ("process").
		ex.Body = result.Body
		if result.Headers != nil {
			ex.Headers = result.Headers
		}
	}
	enqueue(ex, tail)
	return nil
}

func execTransform(step StepDefinition, ex *Exchange, tail []StepDefinition, enqueue func(*Exchange, []StepDefinition)) error {
	t := step.adapter.(Transformer)
	newBody, err := t.Transform(ex.Body)
	if err != nil {
		return wrapError(CodeTransformFailed, err)
	}
	ex.Body = newBody
	enqueue(ex, tail)
	return nil
}

func execTo(step StepDefinition, ex *Exchange, tail []StepDefinition, enqueue func(*Exchange, []StepDefinition)) error {
	d := step.adapter.(Destination)
	result, err := d.Send(ex)
	if err != nil {
		return wrapError(CodeDestinationFailed, err)
	}
	if result != nil {
		ex.Body = result
	}
	enqueue(ex, tail)
	return nil
}

// execTap implements the fire-and-forget snapshot contract:
// snapshot (headers copied, body shared; see clone), dispatch without
// awaiting, track at the route, then enqueue the *original* exchange
// immediately.
func (rt *Route) execTap(step StepDefinition, ex *Exchange, tail []StepDefinition, enqueue func(*Exchange, []StepDefinition)) error {
	d := step.adapter.(Destination)
	snapshot := ex.clone(ex.Body, nil)

	rt.trackTask(func() {
		_, err := d.Send(snapshot)
		if err != nil {
			wrapped := wrapError(CodeTapFailed, err)
			snapshot.Logger.Warn("tap failed", "error", wrapped)
			rt.context.emitError(wrapped, rt.def.ID, snapshot)
		}
	})

	enqueue(ex, tail)
	return nil
}

// execFilter is fail-open: adapter errors are logged and the exchange is
// still forwarded (intentional asymmetry with validate).
func execFilter(step StepDefinition, ex *Exchange, tail []StepDefinition, enqueue func(*Exchange, []StepDefinition)) error {
	f := step.adapter.(Filter)
	ok, err := f.Filter(ex)
	if err != nil {
		ex.Logger.Warn("filter failed, forwarding (fail-open)", "error", wrapError(CodeFilterFailed, err))
		enqueue(ex, tail)
		return nil
	}
	if !ok {
		return nil // drop: branch terminates
	}
	enqueue(ex, tail)
	return nil
}

// execValidate is fail-closed: any schema issue drops the exchange and
// stops the branch. The RouteCraftError is still returned so the loop
// logs/emits it uniformly.
func execValidate(step StepDefinition, ex *Exchange, tail []StepDefinition, enqueue func(*Exchange, []StepDefinition)) error {
	s := step.adapter.(StandardSchema)
	result, err := s.Validate(ex.Body)
	if err != nil {
		return wrapError(CodeValidateFailed, err)
	}
	if result.Failed() {
		return newError(CodeValidateFailed, "validation failed: %v", result.Issues)
	}
	if result.Value != nil {
		ex.Body = result.Value
	}
	enqueue(ex, tail)
	return nil
}

func execSplit(step StepDefinition, ex *Exchange, tail []StepDefinition, enqueue func(*Exchange, []StepDefinition)) error {
	s := step.adapter.(Splitter)
	children, err := s.Split(ex.Body)
	if err != nil {
		return wrapError(CodeSplitFailed, err)
	}
	if len(children) == 0 {
		return nil // empty sequence terminates the branch
	}
	groupID := newGroupID()
	for _, childBody := range children {
		child := ex.clone(childBody, nil)
		child.pushSplitGroup(groupID)
		enqueue(child, tail)
	}
	return nil
}

// execAggregate implements "aggregate": gather every pending
// sibling sharing the current split group from the work queue, remove
// them, aggregate, copy the result back onto the driver exchange, and pop
// the group id.
func execAggregate(step StepDefinition, ex *Exchange, tail []StepDefinition, queue *[]workItem, enqueue func(*Exchange, []StepDefinition)) error {
	agg, _ := step.merger.(Aggregator)
	if agg == nil {
		agg = AggregatorFunc(DefaultAggregator)
	}

	hierarchy := ex.SplitHierarchy()
	members := []*Exchange{ex}

	if len(hierarchy) > 0 {
		groupID := hierarchy[len(hierarchy)-1]
		remaining := (*queue)[:0:0]
		for _, item := range *queue {
			tail2 := item.exchange.SplitHierarchy()
			if len(tail2) > 0 && tail2[len(tail2)-1] == groupID {
				members = append(members, item.exchange)
			} else {
				remaining = append(remaining, item)
			}
		}
		*queue = remaining
	}

	result, err := agg.Aggregate(members)
	if err != nil {
		return wrapError(CodeAggregateFailed, err)
	}

	ex.Body = result.Body
	if result.Headers != nil {
		for k, v := range result.Headers {
			if k == HeaderSplitHierarchy {
				continue // hierarchy is managed by popSplitGroup below
			}
			ex.Headers[k] = v
		}
	}
	if len(hierarchy) > 0 {
		ex.popSplitGroup()
	}
	enqueue(ex, tail)
	return nil
}

// DefaultAggregator implements default: flatten one level if
// any input body is a sequence, else collect bodies in order. Only []any
// and []string bodies count as sequences; a body of any other slice type
// is kept as a single element. Metadata (headers, id) come from the first
// input.
func DefaultAggregator(exchanges []*Exchange) (*Exchange, error) {
	if len(exchanges) == 0 {
		return nil, newError(CodeAggregateFailed, "aggregate: empty input")
	}
	first := exchanges[0]

	anySequence := false
	for _, ex := range exchanges {
		if isSequence(ex.Body) {
			anySequence = true
			break
		}
	}

	var result []any
	if anySequence {
		for _, ex := range exchanges {
			if seq, ok := asSequence(ex.Body); ok {
				result = append(result, seq...)
			} else {
				result = append(result, ex.Body)
			}
		}
	} else {
		for _, ex := range exchanges {
			result = append(result, ex.Body)
		}
	}

	return &Exchange{
		ID:      first.ID,
		Body:    result,
		Headers: first.Headers,
		Logger:  first.Logger,
		route:   first.route,
		context: first.context,
	}, nil
}

func isSequence(v any) bool {
	_, ok := asSequence(v)
	return ok
}

func asSequence(v any) ([]any, bool) {
	switch vv := v.(type) {
	case []any:
		return vv, true
	case []string:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// execEnrich runs the destination, then merges its result onto the
// original body ("enrich").
func execEnrich(step StepDefinition, ex *Exchange, tail []StepDefinition, enqueue func(*Exchange, []StepDefinition)) error {
	d := step.adapter.(Destination)
	result, err := d.Send(ex)
	if err != nil {
		return wrapError(CodeDestinationFailed, err)
	}

	merger, _ := step.merger.(EnrichMerger)
	if merger == nil {
		merger = EnrichMergerFunc(DefaultEnrichMerger)
	}
	merged, err := merger.Merge(ex.Body, result)
	if err != nil {
		return wrapError(CodeDestinationFailed, err)
	}
	ex.Body = merged
	enqueue(ex, tail)
	return nil
}

// DefaultEnrichMerger implements default enrich merge: nil
// result leaves the original unchanged; otherwise non-map bodies are
// wrapped as {"value": body} and shallow-merged (result wins).
func DefaultEnrichMerger(original any, result any) (any, error) {
	if result == nil {
		return original, nil
	}
	origMap, ok := original.(map[string]any)
	if !ok {
		origMap = map[string]any{"value": original}
	}
	resultMap, ok := result.(map[string]any)
	if !ok {
		resultMap = map[string]any{"value": result}
	}
	merged := make(map[string]any, len(origMap)+len(resultMap))
	for k, v := range origMap {
		merged[k] = v
	}
	for k, v := range resultMap {
		merged[k] = v
	}
	return merged, nil
}

func execHeader(step StepDefinition, ex *Exchange, tail []StepDefinition, enqueue func(*Exchange, []StepDefinition)) error {
	setter := step.adapter.(HeaderSetter)
	value, err := setter.SetHeader(ex)
	if err != nil {
		return wrapError(CodeProcessFailed, fmt.Errorf("header %q: %w", step.headerKey, err))
	}
	ex.Headers[step.headerKey] = value
	enqueue(ex, tail)
	return nil
}
