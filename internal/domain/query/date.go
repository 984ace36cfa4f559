package query

import "time"

// Relative-date tokens accepted by the findDate filter.
const (
	TokenToday     = "today"
	TokenYesterday = "yesterday"
	TokenLastWeek  = "last_week"
	TokenLastMonth = "last_month"
)

// SinceTokenBound maps a relative-date token to the lower bound of a
// half-open discovery-time range (records with dateFound >= bound match).
//
// "today" is anchored at midnight UTC of the current day for determinism;
// the other tokens are exactly 1, 7 and 28 days before that anchor. An
// unknown token yields ok=false and the filter is skipped.
func SinceTokenBound(token string, now time.Time) (time.Time, bool) {
	day := now.UTC().Truncate(24 * time.Hour)
	switch token {
	case TokenToday:
		return day, true
	case TokenYesterday:
		return day.AddDate(0, 0, -1), true
	case TokenLastWeek:
		return day.AddDate(0, 0, -7), true
	case TokenLastMonth:
		return day.AddDate(0, 0, -28), true
	default:
		return time.Time{}, false
	}
}
