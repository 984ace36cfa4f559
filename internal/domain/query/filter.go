// Package query composes normalized filter predicates into a single
// conjunctive query against the record store.
package query

import (
	"fmt"
	"time"
)

// MaxPredicates caps the number of predicates in one filter.
const MaxPredicates = 16

// Index field aliases the record store exposes for filtering.
const (
	FieldPlace    = "place"
	FieldCategory = "category"
	FieldColorID  = "color_id"
	FieldKeyword  = "keyword"
	FieldFoundTS  = "found_ts"
)

// Kind discriminates predicate shapes.
type Kind int

const (
	// KindEquals is an exact tag match on a scalar field.
	KindEquals Kind = iota
	// KindContains is a membership match against an array field.
	KindContains
	// KindSince is a half-open lower bound on the discovery timestamp.
	KindSince
)

// Predicate is a single normalized filter clause.
type Predicate struct {
	field string
	value string
	since time.Time
	kind  Kind
}

// PlaceEquals filters by canonical municipality.
func PlaceEquals(v string) (Predicate, error) { return equals(FieldPlace, v) }

// CategoryEquals filters by canonical category name.
func CategoryEquals(v string) (Predicate, error) { return equals(FieldCategory, v) }

// ColorIDEquals filters by color identifier.
func ColorIDEquals(v string) (Predicate, error) { return equals(FieldColorID, v) }

// KeywordContains filters records whose keyword list contains v.
func KeywordContains(v string) (Predicate, error) {
	if v == "" {
		return Predicate{}, fmt.Errorf("keyword value is required")
	}
	return Predicate{field: FieldKeyword, value: v, kind: KindContains}, nil
}

// FoundSince filters records discovered at or after t. No upper bound.
func FoundSince(t time.Time) (Predicate, error) {
	if t.IsZero() {
		return Predicate{}, fmt.Errorf("since bound is required")
	}
	return Predicate{field: FieldFoundTS, since: t, kind: KindSince}, nil
}

func equals(field, v string) (Predicate, error) {
	if v == "" {
		return Predicate{}, fmt.Errorf("value is required for field %q", field)
	}
	return Predicate{field: field, value: v, kind: KindEquals}, nil
}

// Field returns the index field the predicate applies to.
func (p Predicate) Field() string { return p.field }

// Value returns the match value for equals/contains predicates.
func (p Predicate) Value() string { return p.value }

// Since returns the lower bound for since predicates.
func (p Predicate) Since() time.Time { return p.since }

// Kind returns the predicate shape.
func (p Predicate) Kind() Kind { return p.kind }

// Filter is an AND-only conjunction of predicates. An empty filter matches
// every record.
type Filter struct {
	preds []Predicate
}

// NewFilter validates and creates a Filter.
func NewFilter(preds ...Predicate) (Filter, error) {
	if len(preds) > MaxPredicates {
		return Filter{}, fmt.Errorf("too many predicates (max %d)", MaxPredicates)
	}
	return Filter{preds: preds}, nil
}

// And returns a copy of the filter with p appended.
func (f Filter) And(p Predicate) Filter {
	preds := make([]Predicate, 0, len(f.preds)+1)
	preds = append(preds, f.preds...)
	preds = append(preds, p)
	return Filter{preds: preds}
}

// Predicates returns the conjunction members.
func (f Filter) Predicates() []Predicate { return f.preds }

// IsEmpty reports whether the filter has no predicates.
func (f Filter) IsEmpty() bool { return len(f.preds) == 0 }
