// Package rowstore executes parameterized read-only queries against the SALT
// relational database and returns tabular rows.
package rowstore

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Executor runs one parameterized statement. Placeholders are written as "?";
// a List argument expands to a comma-separated placeholder group for IN (...).
type Executor interface {
	Query(ctx context.Context, stmt string, args ...any) (Rows, error)
}

// Rows is a fully materialized result table.
type Rows []Row

// Row maps lower-cased column names to driver values.
type Row map[string]any

// Decode returns a decoder that records the first conversion failure.
func (r Row) Decode() *Decoder { return &Decoder{row: r} }

// Decoder converts row values, accumulating the first error.
type Decoder struct {
	row Row
	err error
}

// Err returns the first conversion failure, if any.
func (d *Decoder) Err() error { return d.err }

func (d *Decoder) value(col string) (any, bool) {
	if d.err != nil {
		return nil, false
	}
	v, ok := d.row[strings.ToLower(col)]
	if !ok {
		d.err = fmt.Errorf("column %s missing from result", col)
		return nil, false
	}
	return v, true
}

func (d *Decoder) fail(col string, v any, want string) {
	d.err = fmt.Errorf("column %s: cannot convert %T to %s", col, v, want)
}

// Int64 decodes a non-null integer column.
func (d *Decoder) Int64(col string) int64 {
	v, ok := d.value(col)
	if !ok {
		return 0
	}
	n, ok := asInt64(v)
	if !ok {
		d.fail(col, v, "int64")
	}
	return n
}

// NullInt64 decodes a nullable integer column.
func (d *Decoder) NullInt64(col string) *int64 {
	v, ok := d.value(col)
	if !ok || v == nil {
		return nil
	}
	n, ok := asInt64(v)
	if !ok {
		d.fail(col, v, "int64")
		return nil
	}
	return &n
}

// Int decodes a non-null integer column into an int.
func (d *Decoder) Int(col string) int { return int(d.Int64(col)) }

// Float64 decodes a non-null numeric column.
func (d *Decoder) Float64(col string) float64 {
	v, ok := d.value(col)
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case []byte, string:
		f, err := strconv.ParseFloat(strings.TrimSpace(asString(x)), 64)
		if err != nil {
			d.fail(col, v, "float64")
		}
		return f
	}
	if n, ok := asInt64(v); ok {
		return float64(n)
	}
	d.fail(col, v, "float64")
	return 0
}

// String decodes a non-null text column.
func (d *Decoder) String(col string) string {
	v, ok := d.value(col)
	if !ok {
		return ""
	}
	switch v.(type) {
	case string, []byte:
		return asString(v)
	}
	d.fail(col, v, "string")
	return ""
}

// NullString decodes a nullable text column.
func (d *Decoder) NullString(col string) *string {
	v, ok := d.value(col)
	if !ok || v == nil {
		return nil
	}
	switch v.(type) {
	case string, []byte:
		s := asString(v)
		return &s
	}
	d.fail(col, v, "string")
	return nil
}

// Time decodes a non-null timestamp column as UTC.
func (d *Decoder) Time(col string) time.Time {
	v, ok := d.value(col)
	if !ok {
		return time.Time{}
	}
	t, ok := asTime(v)
	if !ok {
		d.fail(col, v, "time.Time")
	}
	return t
}

// Date decodes a non-null date column as midnight UTC of the calendar day the
// driver reported, whatever location the connection parses dates in.
func (d *Decoder) Date(col string) time.Time {
	v, ok := d.value(col)
	if !ok {
		return time.Time{}
	}
	t, ok := asLocalTime(v)
	if !ok {
		d.fail(col, v, "date")
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NullTime decodes a nullable timestamp column as UTC.
func (d *Decoder) NullTime(col string) *time.Time {
	v, ok := d.value(col)
	if !ok || v == nil {
		return nil
	}
	t, ok := asTime(v)
	if !ok {
		d.fail(col, v, "time.Time")
		return nil
	}
	return &t
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	}
	return fmt.Sprint(v)
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case int:
		return int64(x), true
	case int16:
		return int64(x), true
	case int8:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case uint32:
		return int64(x), true
	case float64:
		if x != float64(int64(x)) {
			return 0, false
		}
		return int64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case []byte, string:
		n, err := strconv.ParseInt(strings.TrimSpace(asString(x)), 10, 64)
		return n, err == nil
	}
	return 0, false
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
}

func asTime(v any) (time.Time, bool) {
	t, ok := asLocalTime(v)
	return t.UTC(), ok
}

// asLocalTime keeps the location the value arrived in.
func asLocalTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case int64:
		return time.Unix(x, 0).UTC(), true
	case []byte, string:
		s := strings.TrimSpace(asString(x))
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
