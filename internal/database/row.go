// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

package database

import (
	"fmt"
	"strconv"
	"time"
)

// Row is one result row keyed by column name. Backends normalize driver
// specific values (numerics, intervals, huge integers) to int64, float64,
// time.Duration and friends before a Row leaves this package.
//
// The typed accessors are lenient: a missing or NULL column yields the zero
// value. Use the Nullable variants where NULL is meaningful.
type Row map[string]any

// Int64 returns column as an int64.
func (r Row) Int64(column string) int64 {
	n, _ := toInt64(r[column])
	return n
}

// Int returns column as an int.
func (r Row) Int(column string) int {
	return int(r.Int64(column))
}

// NullableInt64 returns nil for NULL.
func (r Row) NullableInt64(column string) *int64 {
	n, ok := toInt64(r[column])
	if !ok {
		return nil
	}
	return &n
}

// Float64 returns column as a float64.
func (r Row) Float64(column string) float64 {
	f, _ := toFloat64(r[column])
	return f
}

// NullableFloat64 returns nil for NULL.
func (r Row) NullableFloat64(column string) *float64 {
	f, ok := toFloat64(r[column])
	if !ok {
		return nil
	}
	return &f
}

// String returns column as a string. Numbers are formatted.
func (r Row) String(column string) string {
	switch v := r[column].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

// NullableString returns nil for NULL.
func (r Row) NullableString(column string) *string {
	if r[column] == nil {
		return nil
	}
	s := r.String(column)
	return &s
}

// Bool returns column as a bool.
func (r Row) Bool(column string) bool {
	b, _ := r[column].(bool)
	return b
}

// NullableBool returns nil for NULL.
func (r Row) NullableBool(column string) *bool {
	b, ok := r[column].(bool)
	if !ok {
		return nil
	}
	return &b
}

// Time returns column as a time.Time.
func (r Row) Time(column string) time.Time {
	t, _ := r[column].(time.Time)
	return t
}

// Duration returns an interval column.
func (r Row) Duration(column string) time.Duration {
	d, _ := r[column].(time.Duration)
	return d
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int8:
		return int64(n), true
	case int:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		i, ok := toInt64(v)
		return float64(i), ok
	}
}
