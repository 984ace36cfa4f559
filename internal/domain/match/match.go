// Package match defines the outcome type for oracle-backed fuzzy matching.
package match

// Result is the outcome of a closest-match lookup. Exactly one of the three
// states holds: a matched value, no match, or a dependency failure.
type Result struct {
	value string
	err   error
	found bool
}

// Matched creates a successful result carrying the canonical value.
func Matched(value string) Result {
	return Result{value: value, found: true}
}

// NotFound creates a result for an input with no acceptable match.
func NotFound() Result {
	return Result{}
}

// Unavailable creates a result for an oracle failure.
func Unavailable(err error) Result {
	return Result{err: err}
}

// Value returns the canonical value and whether a match was found.
func (r Result) Value() (string, bool) { return r.value, r.found }

// IsMatched reports whether a canonical value was found.
func (r Result) IsMatched() bool { return r.found }

// Err returns the dependency failure, or nil.
func (r Result) Err() error { return r.err }
