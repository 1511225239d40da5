package routecraft

import (
	"context"
	"errors"
	"testing"
)

func TestSourceFunc_SatisfiesSource(t *testing.T) {
	called := false
	var s Source = SourceFunc(func(ctx context.Context, submit MessageHandler) error {
		called = true
		return nil
	})
	if err := s.Subscribe(context.Background(), nil); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if !called {
		t.Error("underlying function was never invoked")
	}
}

func TestProcessorFunc_SatisfiesProcessor(t *testing.T) {
	var p Processor = ProcessorFunc(func(ex *Exchange) (*Exchange, error) { return ex, nil })
	in := NewExchange("body", nil, "")
	out, err := p.Process(in)
	if err != nil || out != in {
		t.Errorf("Process() = %v, %v, want %v, nil", out, err, in)
	}
}

func TestTransformerFunc_SatisfiesTransformer(t *testing.T) {
	var tr Transformer = TransformerFunc(func(body any) (any, error) { return body.(int) + 1, nil })
	out, err := tr.Transform(41)
	if err != nil || out != 42 {
		t.Errorf("Transform() = %v, %v, want 42, nil", out, err)
	}
}

func TestDestinationFunc_SatisfiesDestination(t *testing.T) {
	var d Destination = DestinationFunc(func(ex *Exchange) (any, error) { return "reply", nil })
	out, err := d.Send(NewExchange("x", nil, ""))
	if err != nil || out != "reply" {
		t.Errorf("Send() = %v, %v, want reply, nil", out, err)
	}
}

func TestFilterFunc_SatisfiesFilter(t *testing.T) {
	var f Filter = FilterFunc(func(ex *Exchange) (bool, error) { return false, nil })
	keep, err := f.Filter(NewExchange(nil, nil, ""))
	if err != nil || keep {
		t.Errorf("Filter() = %v, %v, want false, nil", keep, err)
	}
}

func TestSplitterFunc_SatisfiesSplitter(t *testing.T) {
	var s Splitter = SplitterFunc(func(body any) ([]any, error) { return []any{1, 2}, nil })
	out, err := s.Split(nil)
	if err != nil || len(out) != 2 {
		t.Errorf("Split() = %v, %v, want [1 2], nil", out, err)
	}
}

func TestAggregatorFunc_SatisfiesAggregator(t *testing.T) {
	want := NewExchange("merged", nil, "")
	var a Aggregator = AggregatorFunc(func(exchanges []*Exchange) (*Exchange, error) { return want, nil })
	out, err := a.Aggregate(nil)
	if err != nil || out != want {
		t.Errorf("Aggregate() = %v, %v, want %v, nil", out, err, want)
	}
}

func TestEnrichMergerFunc_SatisfiesEnrichMerger(t *testing.T) {
	var m EnrichMerger = EnrichMergerFunc(func(original, result any) (any, error) { return result, nil })
	out, err := m.Merge("orig", "res")
	if err != nil || out != "res" {
		t.Errorf("Merge() = %v, %v, want res, nil", out, err)
	}
}

func TestHeaderSetterFunc_SatisfiesHeaderSetter(t *testing.T) {
	var h HeaderSetter = HeaderSetterFunc(func(ex *Exchange) (any, error) { return "v", nil })
	out, err := h.SetHeader(nil)
	if err != nil || out != "v" {
		t.Errorf("SetHeader() = %v, %v, want v, nil", out, err)
	}
}

func TestHeaderConst_AlwaysReturnsTheSameValue(t *testing.T) {
	h := HeaderConst(42)
	v1, _ := h.SetHeader(NewExchange(1, nil, ""))
	v2, _ := h.SetHeader(NewExchange(2, nil, ""))
	if v1 != 42 || v2 != 42 {
		t.Errorf("SetHeader() = %v, %v, want 42, 42", v1, v2)
	}
}

func TestSchemaResult_Failed(t *testing.T) {
	ok := SchemaResult{Value: "x"}
	if ok.Failed() {
		t.Error("a result with no issues must not be Failed()")
	}
	bad := SchemaResult{Issues: []string{"nope"}}
	if !bad.Failed() {
		t.Error("a result with issues must be Failed()")
	}
}

func TestStandardSchemaFunc_SatisfiesStandardSchema(t *testing.T) {
	wantErr := errors.New("boom")
	var s StandardSchema = StandardSchemaFunc(func(v any) (SchemaResult, error) { return SchemaResult{}, wantErr })
	_, err := s.Validate(nil)
	if !errors.Is(err, wantErr) {
		t.Errorf("Validate() err = %v, want %v", err, wantErr)
	}
}
