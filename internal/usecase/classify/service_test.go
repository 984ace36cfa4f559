package classify

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/civic-cloud/lostfound/internal/domain"
	"github.com/civic-cloud/lostfound/internal/domain/match"
)

type mockOracle struct {
	classifyFn func(ctx context.Context, image []byte, contentType string, colors, categories, keywords []string) (domain.ImageClassification, error)
	calls      int
}

func (m *mockOracle) ClassifyImage(
	ctx context.Context, image []byte, contentType string,
	colors, categories, keywords []string,
) (domain.ImageClassification, error) {
	m.calls++
	if m.classifyFn != nil {
		return m.classifyFn(ctx, image, contentType, colors, categories, keywords)
	}
	return domain.ImageClassification{}, nil
}

type mockNormalizer struct {
	keywordFn func(ctx context.Context, text string, vocabulary []string) match.Result
}

func (m *mockNormalizer) Keyword(ctx context.Context, text string, vocabulary []string) match.Result {
	if m.keywordFn != nil {
		return m.keywordFn(ctx, text, vocabulary)
	}
	return match.NotFound()
}

type mockVocab struct {
	vocabularyFn func(ctx context.Context) ([]string, error)
	calls        int
}

func (m *mockVocab) Vocabulary(ctx context.Context) ([]string, error) {
	m.calls++
	if m.vocabularyFn != nil {
		return m.vocabularyFn(ctx)
	}
	return nil, nil
}

func newTestService(t *testing.T) (*Service, *mockOracle, *mockNormalizer, *mockVocab) {
	t.Helper()
	mo := &mockOracle{}
	mn := &mockNormalizer{}
	mv := &mockVocab{}
	return New(mo, mn, mv, zap.NewNop()), mo, mn, mv
}

// --- Image ---

func TestImage_FreshVocabularyEveryCall(t *testing.T) {
	svc, mo, _, mv := newTestService(t)

	mv.vocabularyFn = func(_ context.Context) ([]string, error) {
		return []string{"革", "黒"}, nil
	}
	mo.classifyFn = func(
		_ context.Context, _ []byte, _ string, colors, categories, keywords []string,
	) (domain.ImageClassification, error) {
		if len(colors) == 0 || len(categories) == 0 {
			t.Error("expected enumerations passed to oracle")
		}
		if !reflect.DeepEqual(keywords, []string{"革", "黒"}) {
			t.Errorf("unexpected vocabulary: %v", keywords)
		}
		return domain.ImageClassification{Color: "黒", Category: "財布", Tags: []string{"革"}}, nil
	}

	img := []byte{0xFF, 0xD8}
	for i := 0; i < 2; i++ {
		if _, err := svc.Image(context.Background(), img, "image/jpeg"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if mv.calls != 2 {
		t.Errorf("vocabulary must be fetched per call, got %d fetches", mv.calls)
	}
}

func TestImage_ClampsAndFiltersTags(t *testing.T) {
	svc, mo, _, mv := newTestService(t)

	mv.vocabularyFn = func(_ context.Context) ([]string, error) {
		return []string{"革", "黒", "二つ折り", "小銭入れ"}, nil
	}
	mo.classifyFn = func(
		_ context.Context, _ []byte, _ string, _, _, _ []string,
	) (domain.ImageClassification, error) {
		return domain.ImageClassification{
			Color:    "黒",
			Category: "財布",
			// 5 answers: one novel, four in vocabulary
			Tags: []string{"革", "高級", "黒", "二つ折り", "小銭入れ"},
		}, nil
	}

	got, err := svc.Image(context.Background(), []byte{1}, "image/png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"革", "黒", "二つ折り"}
	if !reflect.DeepEqual(got.Tags, want) {
		t.Errorf("expected tags %v, got %v", want, got.Tags)
	}
}

func TestImage_CoercesNonMembers(t *testing.T) {
	svc, mo, _, _ := newTestService(t)

	mo.classifyFn = func(
		_ context.Context, _ []byte, _ string, _, _, _ []string,
	) (domain.ImageClassification, error) {
		return domain.ImageClassification{Color: "マゼンタ", Category: "スマートフォン"}, nil
	}

	got, err := svc.Image(context.Background(), []byte{1}, "image/png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Color != "" || got.Category != "" {
		t.Errorf("non-members must be dropped, got %+v", got)
	}
}

func TestImage_EmptyPayload(t *testing.T) {
	svc, mo, _, _ := newTestService(t)

	_, err := svc.Image(context.Background(), nil, "image/png")
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if mo.calls != 0 {
		t.Error("oracle must not be called without a payload")
	}
}

func TestImage_BadOracleShapePassthrough(t *testing.T) {
	svc, mo, _, _ := newTestService(t)
	mo.classifyFn = func(
		_ context.Context, _ []byte, _ string, _, _, _ []string,
	) (domain.ImageClassification, error) {
		return domain.ImageClassification{}, domain.ErrOracleBadResponse
	}

	_, err := svc.Image(context.Background(), []byte{1}, "image/png")
	if !errors.Is(err, domain.ErrOracleBadResponse) {
		t.Errorf("expected ErrOracleBadResponse, got %v", err)
	}
}

// --- SelectKeyword ---

func TestSelectKeyword_Matched(t *testing.T) {
	svc, _, mn, mv := newTestService(t)

	mv.vocabularyFn = func(_ context.Context) ([]string, error) {
		return []string{"革", "黒"}, nil
	}
	mn.keywordFn = func(_ context.Context, text string, vocabulary []string) match.Result {
		if text != "革っぽい" || len(vocabulary) != 2 {
			t.Errorf("unexpected args: %s %v", text, vocabulary)
		}
		return match.Matched("革")
	}

	res := svc.SelectKeyword(context.Background(), "革っぽい")
	v, ok := res.Value()
	if !ok || v != "革" {
		t.Errorf("expected matched 革, got %v %v", v, ok)
	}
}

func TestSelectKeyword_VocabularyError(t *testing.T) {
	svc, _, _, mv := newTestService(t)
	mv.vocabularyFn = func(_ context.Context) ([]string, error) {
		return nil, errors.New("scan failed")
	}

	res := svc.SelectKeyword(context.Background(), "革")
	if res.Err() == nil {
		t.Error("expected dependency error")
	}
}

func TestSelectKeyword_EmptyText(t *testing.T) {
	svc, _, _, mv := newTestService(t)

	res := svc.SelectKeyword(context.Background(), "")
	if res.IsMatched() || res.Err() != nil {
		t.Errorf("expected plain not-found, got %+v", res)
	}
	if mv.calls != 0 {
		t.Error("vocabulary must not be fetched for empty text")
	}
}
