package normalize

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/civic-cloud/lostfound/internal/domain"
)

// mockOracle implements the oracle contract for tests.
type mockOracle struct {
	selectFn func(ctx context.Context, input string, choices []string, shots []domain.FewShot) (string, error)
	calls    int
}

func (m *mockOracle) SelectClosest(
	ctx context.Context, input string, choices []string, shots []domain.FewShot,
) (string, error) {
	m.calls++
	if m.selectFn != nil {
		return m.selectFn(ctx, input, choices, shots)
	}
	return "", nil
}

func newTestService(t *testing.T) (*Service, *mockOracle) {
	t.Helper()
	mo := &mockOracle{}
	return New(mo, zap.NewNop()), mo
}

func TestLocation_Matched(t *testing.T) {
	svc, mo := newTestService(t)
	mo.selectFn = func(_ context.Context, input string, choices []string, shots []domain.FewShot) (string, error) {
		if input != "ちとせ" {
			t.Errorf("unexpected input: %s", input)
		}
		if len(shots) == 0 {
			t.Error("expected municipality few-shots")
		}
		return "千歳市", nil
	}

	res := svc.Location(context.Background(), "ちとせ")
	v, ok := res.Value()
	if !ok || v != "千歳市" {
		t.Errorf("expected matched 千歳市, got %v %v", v, ok)
	}
}

func TestCategory_AnswerOutsideVocabularyIsNotFound(t *testing.T) {
	svc, mo := newTestService(t)
	mo.selectFn = func(_ context.Context, _ string, _ []string, _ []domain.FewShot) (string, error) {
		return "スマートフォン", nil // not a canonical category
	}

	res := svc.Category(context.Background(), "スマホ")
	if res.IsMatched() {
		t.Error("novel oracle answer must not be treated as a match")
	}
	if res.Err() != nil {
		t.Errorf("non-match is not a dependency error: %v", res.Err())
	}
}

func TestCategory_OracleFailure(t *testing.T) {
	svc, mo := newTestService(t)
	wantErr := errors.New("timeout")
	mo.selectFn = func(_ context.Context, _ string, _ []string, _ []domain.FewShot) (string, error) {
		return "", wantErr
	}

	res := svc.Category(context.Background(), "かばん")
	if res.IsMatched() {
		t.Error("expected no match on oracle failure")
	}
	if !errors.Is(res.Err(), wantErr) {
		t.Errorf("expected dependency error, got %v", res.Err())
	}
}

func TestKeyword_EmptyVocabularySkipsOracle(t *testing.T) {
	svc, mo := newTestService(t)

	res := svc.Keyword(context.Background(), "黒い財布", nil)
	if mo.calls != 0 {
		t.Error("oracle must not be called for an empty vocabulary")
	}
	if !errors.Is(res.Err(), domain.ErrNoKeywords) {
		t.Errorf("expected ErrNoKeywords, got %v", res.Err())
	}
}

func TestKeyword_Matched(t *testing.T) {
	svc, mo := newTestService(t)
	mo.selectFn = func(_ context.Context, _ string, choices []string, shots []domain.FewShot) (string, error) {
		if len(shots) != 0 {
			t.Error("keyword matching has no few-shots")
		}
		if len(choices) != 2 {
			t.Errorf("unexpected choices: %v", choices)
		}
		return "革", nil
	}

	res := svc.Keyword(context.Background(), "革っぽい", []string{"革", "黒"})
	v, ok := res.Value()
	if !ok || v != "革" {
		t.Errorf("expected matched 革, got %v %v", v, ok)
	}
}

func TestEmptyInputIsNotFound(t *testing.T) {
	svc, mo := newTestService(t)

	res := svc.Location(context.Background(), "")
	if mo.calls != 0 {
		t.Error("oracle must not be called for empty input")
	}
	if res.IsMatched() || res.Err() != nil {
		t.Errorf("expected plain not-found, got %+v", res)
	}
}
