// Package stepfilter partitions numeric record fields into half-open
// buckets defined by an ascending step list. Used by the consumption
// views to group meters by usage band.
package stepfilter

import (
	"fmt"
	"strings"
)

// Config describes one bucketed field. Steps must be strictly ascending.
type Config struct {
	Field string
	Unit  string
	Steps []float64
}

func (c Config) Validate() error {
	if c.Field == "" {
		return fmt.Errorf("stepfilter: field is required")
	}
	if len(c.Steps) == 0 {
		return fmt.Errorf("stepfilter: field %s has no steps", c.Field)
	}
	for i := 1; i < len(c.Steps); i++ {
		if c.Steps[i] <= c.Steps[i-1] {
			return fmt.Errorf("stepfilter: field %s steps not strictly ascending at index %d", c.Field, i)
		}
	}
	return nil
}

// Bucket is one partition cell. Empty matches only missing values.
// Upper nil means unbounded above.
type Bucket struct {
	Empty bool
	Lower float64
	Upper *float64
}

// Buckets returns the full partition: the empty bucket first, then
// [s0,s1), [s1,s2), ..., [sn, +inf). Every value falls into exactly
// one bucket; values below the first step fall into none by design of
// the step list, which always starts at the field minimum.
func (c Config) Buckets() []Bucket {
	out := make([]Bucket, 0, len(c.Steps)+1)
	out = append(out, Bucket{Empty: true})
	for i, s := range c.Steps {
		b := Bucket{Lower: s}
		if i+1 < len(c.Steps) {
			upper := c.Steps[i+1]
			b.Upper = &upper
		}
		out = append(out, b)
	}
	return out
}

// BucketAt returns the non-empty bucket whose lower bound equals lower.
func (c Config) BucketAt(lower float64) (Bucket, bool) {
	for _, b := range c.Buckets() {
		if !b.Empty && b.Lower == lower {
			return b, true
		}
	}
	return Bucket{}, false
}

// Contains reports whether v falls in the bucket. A nil v matches only
// the empty bucket.
func (b Bucket) Contains(v *float64) bool {
	if v == nil {
		return b.Empty
	}
	if b.Empty {
		return false
	}
	if *v < b.Lower {
		return false
	}
	return b.Upper == nil || *v < *b.Upper
}

// Label renders the bucket for display, e.g. "100 – 500 m3" or "≥ 500 m3".
func (b Bucket) Label(unit string) string {
	var s string
	switch {
	case b.Empty:
		s = "ohne Wert"
	case b.Upper == nil:
		s = fmt.Sprintf("≥ %s", trimFloat(b.Lower))
	default:
		s = fmt.Sprintf("%s – %s", trimFloat(b.Lower), trimFloat(*b.Upper))
	}
	if unit != "" && !b.Empty {
		s += " " + unit
	}
	return s
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// Apply keeps the items whose extracted value falls in the bucket.
func Apply[T any](items []T, value func(T) *float64, b Bucket) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if b.Contains(value(it)) {
			out = append(out, it)
		}
	}
	return out
}
