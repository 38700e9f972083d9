package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingColumns      = errors.New("missing required columns")
	ErrEmptyResult         = errors.New("no rows left after cleaning")
	ErrInsufficientColumns = errors.New("insufficient columns")
	ErrInsufficientData    = errors.New("insufficient data")
	ErrFit                 = errors.New("model fit failed")
	ErrRunNotFound         = errors.New("run not found")
)

// MissingColumnsError lists required headers absent from a table.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Is(target error) bool { return target == ErrMissingColumns }

// FitError is returned when the forecasting engine rejects the config or the input.
type FitError struct {
	Scope string
	Err   error
}

func (e *FitError) Error() string {
	if e.Scope == "" {
		return fmt.Sprintf("%s: %v", ErrFit, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", ErrFit, e.Scope, e.Err)
}

func (e *FitError) Unwrap() error { return e.Err }

func (e *FitError) Is(target error) bool { return target == ErrFit }
