// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package query

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCriterion marks request errors found while compiling a search.
	ErrInvalidCriterion = errors.New("invalid criterion")

	// ErrUnsupportedCriterion is returned when a criterion names no known
	// operator. It also matches ErrInvalidCriterion.
	ErrUnsupportedCriterion = fmt.Errorf("%w: criteria not supported", ErrInvalidCriterion)

	// ErrUnknownFlag is returned for a flag alias missing from the registry.
	ErrUnknownFlag = errors.New("unknown flag")
)

// InvalidCriterionError carries the dotted path of the offending field.
type InvalidCriterionError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InvalidCriterionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *InvalidCriterionError) Unwrap() error {
	if e.Err == nil {
		return ErrInvalidCriterion
	}
	return e.Err
}

// UnknownFlagError names a flag alias that is not registered.
type UnknownFlagError struct {
	Alias string
}

func (e *UnknownFlagError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownFlag, e.Alias)
}

func (e *UnknownFlagError) Unwrap() error {
	return ErrUnknownFlag
}

func invalid(field, reason string) error {
	return &InvalidCriterionError{Field: field, Reason: reason, Err: ErrInvalidCriterion}
}
