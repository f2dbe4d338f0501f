package models

import (
	"errors"
	"fmt"
)

var ValidationErr = errors.New("validation error")
var FetchErr = errors.New("fetch error")
var SchemaErr = errors.New("schema error")

var InvalidDateErr = fmt.Errorf("date must be formatted as %s", DateLayoutDesc)
var DateRangeReversedErr = errors.New("end date precedes start date")
var UnknownSymbolErr = errors.New("symbol is not listed")
var EmptySymbolErr = errors.New("symbol is empty")
var MissingFieldErr = errors.New("missing required field")
var NotIntegralErr = errors.New("value is not an integer")
var DuplicateStrikeErr = errors.New("duplicate strike price")
var NonJSONBodyErr = errors.New("response body is not json")

// ValidationError reports malformed caller input. It is raised before any
// network activity.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return target == ValidationErr
}

// FetchError wraps any transport, network or process failure.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("error fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == FetchErr
}

// SchemaError reports an upstream payload that does not match the expected
// record shape. Path is a dotted location inside the document.
type SchemaError struct {
	Path string
	Err  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema mismatch at %s: %v", e.Path, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

func (e *SchemaError) Is(target error) bool {
	return target == SchemaErr
}

type ErrorDTO struct {
	Msg string `json:"msg"`
}
