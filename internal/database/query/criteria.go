// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package query

import (
	"fmt"
	"math"
	"reflect"
	"time"
)

// DateLayout is the only accepted format for the date operator.
const DateLayout = "2006-01-02"

// Criterion is one field-level filter as it arrives in a request body:
//
//	{"values": [5, 6]}   {"values": "Arabia"}
//	{"date": "2020-03-01"}
//	{"gte": 1200}        {"lte": 1500}
//
// One operator is expected. When several are set the first of values,
// date, gte, lte wins.
type Criterion struct {
	Values any `json:"values,omitempty"`
	Date   any `json:"date,omitempty"`
	GTE    any `json:"gte,omitempty"`
	LTE    any `json:"lte,omitempty"`
}

// Predicate is a compiled criterion: SQL text referencing one bind.
type Predicate struct {
	SQL   string
	Bind  string
	Value any
}

// Compile turns a criterion on field into a predicate bound under bind.
// field must already be a trusted column reference.
//
// Exactly one operator is compiled, checked in the order values, date, gte,
// lte. A criterion with none of them is rejected with
// ErrUnsupportedCriterion so an empty object never widens a search.
func Compile(field, bind string, c Criterion) (Predicate, error) {
	switch {
	case c.Values != nil:
		values, err := normalizeValues(c.Values)
		if err != nil {
			return Predicate{}, invalid(field, err.Error())
		}
		return Predicate{
			SQL:   fmt.Sprintf("%s = ANY(%s)", field, Placeholder(bind)),
			Bind:  bind,
			Value: values,
		}, nil

	case c.Date != nil:
		s, ok := c.Date.(string)
		if !ok {
			return Predicate{}, invalid(field, fmt.Sprintf("date must be a YYYY-MM-DD string, got %T", c.Date))
		}
		day, err := time.Parse(DateLayout, s)
		if err != nil {
			return Predicate{}, invalid(field, fmt.Sprintf("date %q is not YYYY-MM-DD", s))
		}
		return Predicate{
			SQL:   fmt.Sprintf("%s::date = %s", field, Placeholder(bind)),
			Bind:  bind,
			Value: day,
		}, nil

	case c.GTE != nil:
		if err := checkNumbers([]any{c.GTE}); err != nil {
			return Predicate{}, invalid(field, err.Error())
		}
		return Predicate{SQL: fmt.Sprintf("%s >= %s", field, Placeholder(bind)), Bind: bind, Value: c.GTE}, nil

	case c.LTE != nil:
		if err := checkNumbers([]any{c.LTE}); err != nil {
			return Predicate{}, invalid(field, err.Error())
		}
		return Predicate{SQL: fmt.Sprintf("%s <= %s", field, Placeholder(bind)), Bind: bind, Value: c.LTE}, nil
	}

	return Predicate{}, &InvalidCriterionError{
		Field:  field,
		Reason: "expected one of values, date, gte, lte",
		Err:    ErrUnsupportedCriterion,
	}
}

// normalizeValues wraps scalars in a slice and narrows decoded JSON lists
// to a homogeneous slice so drivers can encode them as SQL arrays. Whole
// numbers become int64 and must fit in it; fractional numbers stay float64.
func normalizeValues(v any) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return normalizeValues([]any{v})
	}

	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	if len(items) == 0 {
		return []any{}, nil
	}
	if err := checkNumbers(items); err != nil {
		return nil, err
	}

	if ints, ok := asInts(items); ok {
		return ints, nil
	}
	if floats, ok := asFloats(items); ok {
		return floats, nil
	}
	if strs, ok := asStrings(items); ok {
		return strs, nil
	}
	if bools, ok := asBools(items); ok {
		return bools, nil
	}
	return items, nil
}

// 2^63 is exactly representable; every whole float64 below it in magnitude
// converts to int64 without overflow.
const int64Bound = float64(1 << 63)

func checkNumbers(items []any) error {
	for _, it := range items {
		n, ok := it.(float64)
		if !ok {
			continue
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return fmt.Errorf("value %v is not a finite number", n)
		}
		if n == math.Trunc(n) && (n >= int64Bound || n < -int64Bound) {
			return fmt.Errorf("value %v is out of range", n)
		}
	}
	return nil
}

func asInts(items []any) ([]int64, bool) {
	out := make([]int64, len(items))
	for i, it := range items {
		switch n := it.(type) {
		case int:
			out[i] = int64(n)
		case int32:
			out[i] = int64(n)
		case int64:
			out[i] = n
		case float64:
			if n != math.Trunc(n) || n >= int64Bound || n < -int64Bound {
				return nil, false
			}
			out[i] = int64(n)
		default:
			return nil, false
		}
	}
	return out, true
}

func asFloats(items []any) ([]float64, bool) {
	out := make([]float64, len(items))
	for i, it := range items {
		switch n := it.(type) {
		case float64:
			out[i] = n
		case float32:
			out[i] = float64(n)
		case int:
			out[i] = float64(n)
		case int64:
			out[i] = float64(n)
		default:
			return nil, false
		}
	}
	return out, true
}

func asStrings(items []any) ([]string, bool) {
	out := make([]string, len(items))
	for i, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

func asBools(items []any) ([]bool, bool) {
	out := make([]bool, len(items))
	for i, it := range items {
		b, ok := it.(bool)
		if !ok {
			return nil, false
		}
		out[i] = b
	}
	return out, true
}
