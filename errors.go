package routecraft

import (
	"errors"
	"fmt"
	"strings"
)

// Code tags a RouteCraftError with its taxonomy entry (see taxonomy below).
type Code string

const (
	CodeRouteMissingSource Code = "RC1001"
	CodeDuplicateRoute     Code = "RC1002"
	CodeInvalidOperation   Code = "RC2001"
	CodeMissingFrom        Code = "RC2002"
	CodeRouteStart         Code = "RC3001"
	CodeContextStart       Code = "RC3002"
	CodeSourceFailed       Code = "RC5001"
	CodeProcessFailed      Code = "RC5002"
	CodeDestinationFailed  Code = "RC5003"
	CodeSplitFailed        Code = "RC5004"
	CodeAggregateFailed    Code = "RC5005"
	CodeTransformFailed    Code = "RC5006"
	CodeTapFailed          Code = "RC5007"
	CodeFilterFailed       Code = "RC5008"
	CodeValidateFailed     Code = "RC5009"
	CodeDirectSourceDyn    Code = "RC5010"
	CodeDirectValidation   Code = "RC5011"
	CodeUnknown            Code = "RC9901"
)

// Category groups codes the way the taxonomy table does.
type Category string

const (
	CategoryDefinition Category = "Definition"
	CategoryDSL        Category = "DSL"
	CategoryLifecycle  Category = "Lifecycle"
	CategoryAdapter    Category = "Adapter"
	CategoryRuntime    Category = "Runtime"
)

type taxonomyEntry struct {
	category  Category
	retryable bool
	meaning   string
}

var taxonomy = map[Code]taxonomyEntry{
	CodeRouteMissingSource: {CategoryDefinition, false, "route missing source"},
	CodeDuplicateRoute:     {CategoryDefinition, false, "duplicate route id"},
	CodeInvalidOperation:   {CategoryDSL, false, "invalid operation type"},
	CodeMissingFrom:        {CategoryDSL, false, "missing from / empty aggregate"},
	CodeRouteStart:         {CategoryLifecycle, false, "route cannot start (aborted)"},
	CodeContextStart:       {CategoryLifecycle, false, "context cannot start"},
	CodeSourceFailed:       {CategoryAdapter, true, "source threw"},
	CodeProcessFailed:      {CategoryAdapter, true, "processor threw"},
	CodeDestinationFailed:  {CategoryAdapter, true, "destination threw"},
	CodeSplitFailed:        {CategoryAdapter, false, "split failed"},
	CodeAggregateFailed:    {CategoryAdapter, false, "aggregate failed"},
	CodeTransformFailed:    {CategoryAdapter, false, "transform threw"},
	CodeTapFailed:          {CategoryAdapter, true, "tap threw"},
	CodeFilterFailed:       {CategoryAdapter, false, "filter threw"},
	CodeValidateFailed:     {CategoryAdapter, false, "validate failed"},
	CodeDirectSourceDyn:    {CategoryAdapter, false, "direct source with dynamic endpoint"},
	CodeDirectValidation:   {CategoryAdapter, false, "direct schema validation failed"},
	CodeUnknown:            {CategoryRuntime, true, "unknown"},
}

// RouteCraftError is the tagged error object every adapter and engine
// failure path wraps: a stable code, category, retryability, and cause.
type RouteCraftError struct {
	Code       Code
	Category   Category
	Message    string
	Suggestion string
	Docs       string
	Cause      error
	Retryable  bool
}

// NewError builds a tagged RouteCraftError for the given taxonomy code.
// Adapters outside the root package (direct, adapters/*) use this instead
// of constructing RouteCraftError by hand, so every failure carries the
// same category/retryable/docs bookkeeping.
func NewError(code Code, format string, args ...any) *RouteCraftError {
	return newError(code, format, args...)
}

// WrapError tags cause with code unless it is already a RouteCraftError, in
// which case the existing tag is preserved.
func WrapError(code Code, cause error) *RouteCraftError {
	return wrapError(code, cause)
}

func newError(code Code, format string, args ...any) *RouteCraftError {
	entry, ok := taxonomy[code]
	if !ok {
		entry = taxonomy[CodeUnknown]
	}
	return &RouteCraftError{
		Code:      code,
		Category:  entry.category,
		Message:   fmt.Sprintf(format, args...),
		Docs:      "https://routecraft.dev/docs/errors/" + string(code),
		Retryable: entry.retryable,
	}
}

func wrapError(code Code, cause error) *RouteCraftError {
	var existing *RouteCraftError
	if errors.As(cause, &existing) {
		return existing
	}
	e := newError(code, "%v", cause)
	e.Cause = cause
	return e
}

func (e *RouteCraftError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (suggestion: %s)", e.Suggestion)
	}
	if e.Docs != "" {
		fmt.Fprintf(&b, " [%s]", e.Docs)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, "\nCaused by: %v", e.Cause)
	}
	return b.String()
}

func (e *RouteCraftError) Unwrap() error {
	return e.Cause
}

func (e *RouteCraftError) Is(target error) bool {
	t, ok := target.(*RouteCraftError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}
