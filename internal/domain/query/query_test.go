package query

import (
	"testing"
	"time"
)

func TestPredicate_Constructors(t *testing.T) {
	p, err := PlaceEquals("札幌駅")
	if err != nil {
		t.Fatalf("PlaceEquals: %v", err)
	}
	if p.Field() != FieldPlace || p.Value() != "札幌駅" || p.Kind() != KindEquals {
		t.Errorf("unexpected predicate: %+v", p)
	}

	if _, err := PlaceEquals(""); err == nil {
		t.Error("expected error for empty place")
	}
	if _, err := CategoryEquals(""); err == nil {
		t.Error("expected error for empty category")
	}
	if _, err := KeywordContains(""); err == nil {
		t.Error("expected error for empty keyword")
	}
	if _, err := FoundSince(time.Time{}); err == nil {
		t.Error("expected error for zero since bound")
	}
}

func TestFilter_And(t *testing.T) {
	place, _ := PlaceEquals("函館市")
	cat, _ := CategoryEquals("傘")

	f, err := NewFilter()
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if !f.IsEmpty() {
		t.Error("expected empty filter")
	}

	f = f.And(place).And(cat)
	if f.IsEmpty() {
		t.Error("expected non-empty filter")
	}
	if got := len(f.Predicates()); got != 2 {
		t.Fatalf("predicates = %d, want 2", got)
	}
	// Conjunction preserves both members.
	if f.Predicates()[0].Field() != FieldPlace || f.Predicates()[1].Field() != FieldCategory {
		t.Errorf("unexpected predicate order: %+v", f.Predicates())
	}
}

func TestFilter_AndDoesNotMutateReceiver(t *testing.T) {
	place, _ := PlaceEquals("函館市")
	cat, _ := CategoryEquals("傘")

	base, _ := NewFilter(place)
	_ = base.And(cat)

	if len(base.Predicates()) != 1 {
		t.Errorf("base filter mutated: %+v", base.Predicates())
	}
}

func TestNewFilter_TooManyPredicates(t *testing.T) {
	preds := make([]Predicate, MaxPredicates+1)
	for i := range preds {
		preds[i], _ = PlaceEquals("x")
	}
	if _, err := NewFilter(preds...); err == nil {
		t.Error("expected error for too many predicates")
	}
}

func TestSinceTokenBound_Anchors(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 30, 45, 0, time.UTC)
	day := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		token string
		want  time.Time
	}{
		{TokenToday, day},
		{TokenYesterday, day.AddDate(0, 0, -1)},
		{TokenLastWeek, day.AddDate(0, 0, -7)},
		{TokenLastMonth, day.AddDate(0, 0, -28)},
	}
	for _, tc := range tests {
		got, ok := SinceTokenBound(tc.token, now)
		if !ok {
			t.Fatalf("SinceTokenBound(%q) not ok", tc.token)
		}
		if !got.Equal(tc.want) {
			t.Errorf("SinceTokenBound(%q) = %v, want %v", tc.token, got, tc.want)
		}
	}
}

func TestSinceTokenBound_StrictlyDecreasing(t *testing.T) {
	now := time.Now()
	tokens := []string{TokenToday, TokenYesterday, TokenLastWeek, TokenLastMonth}

	var prev time.Time
	for i, token := range tokens {
		bound, ok := SinceTokenBound(token, now)
		if !ok {
			t.Fatalf("SinceTokenBound(%q) not ok", token)
		}
		if i > 0 && !bound.Before(prev) {
			t.Errorf("bound for %q (%v) not before previous (%v)", token, bound, prev)
		}
		prev = bound
	}

	today, _ := SinceTokenBound(TokenToday, now)
	for token, days := range map[string]int{TokenYesterday: 1, TokenLastWeek: 7, TokenLastMonth: 28} {
		bound, _ := SinceTokenBound(token, now)
		if diff := today.Sub(bound); diff != time.Duration(days)*24*time.Hour {
			t.Errorf("%q bound is %v before today's, want %d days", token, diff, days)
		}
	}
}

func TestSinceTokenBound_UnknownToken(t *testing.T) {
	if _, ok := SinceTokenBound("last_year", time.Now()); ok {
		t.Error("expected unknown token to yield no bound")
	}
	if _, ok := SinceTokenBound("", time.Now()); ok {
		t.Error("expected empty token to yield no bound")
	}
}
