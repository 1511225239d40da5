package schema

import "testing"

type order struct {
	ID       string `validate:"required"`
	Quantity int    `validate:"gte=1"`
}

func TestStruct_PassesValidValue(t *testing.T) {
	s := Struct[order]()
	result, err := s.Validate(&order{ID: "o1", Quantity: 2})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Failed() {
		t.Errorf("result.Issues = %v, want none", result.Issues)
	}
}

func TestStruct_ReportsFieldIssues(t *testing.T) {
	s := Struct[order]()
	result, err := s.Validate(&order{Quantity: 0})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !result.Failed() {
		t.Fatal("expected validation issues for a missing id and zero quantity")
	}
	if len(result.Issues) != 2 {
		t.Errorf("issues = %v, want 2 entries (ID and Quantity)", result.Issues)
	}
}

func TestStruct_AcceptsValueReceiverNotJustPointer(t *testing.T) {
	s := Struct[order]()
	result, err := s.Validate(order{ID: "o1", Quantity: 1})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Failed() {
		t.Errorf("result.Issues = %v, want none", result.Issues)
	}
}

func TestStruct_RejectsMismatchedType(t *testing.T) {
	s := Struct[order]()
	result, err := s.Validate("not an order")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !result.Failed() {
		t.Fatal("expected a single issue for a mismatched type")
	}
}
