// Package classify implements image auto-classification and keyword
// selection against the observed vocabulary.
package classify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/civic-cloud/lostfound/internal/domain"
	"github.com/civic-cloud/lostfound/internal/domain/match"
	"github.com/civic-cloud/lostfound/internal/domain/vocab"
)

// maxTags caps the keyword tags one classification may carry.
const maxTags = 3

// Service coordinates oracle-backed classification.
type Service struct {
	oracle Oracle
	norm   Normalizer
	kwRepo VocabularyReader
	logger *zap.Logger
}

// New creates a classification service.
func New(oracle Oracle, norm Normalizer, kwRepo VocabularyReader, logger *zap.Logger) *Service {
	return &Service{oracle: oracle, norm: norm, kwRepo: kwRepo, logger: logger}
}

// Image classifies a photo into {color, category, tags}. The vocabulary is
// fetched fresh on every call. Every answer is coerced to its enumeration:
// a non-member color or category comes back empty, tags are filtered to
// vocabulary members and clamped.
func (s *Service) Image(ctx context.Context, image []byte, contentType string) (domain.ImageClassification, error) {
	if len(image) == 0 {
		return domain.ImageClassification{}, fmt.Errorf("image payload is required: %w", domain.ErrValidation)
	}

	vocabulary, err := s.kwRepo.Vocabulary(ctx)
	if err != nil {
		return domain.ImageClassification{}, fmt.Errorf("load vocabulary: %w", err)
	}

	guess, err := s.oracle.ClassifyImage(ctx, image, contentType, vocab.Colors, vocab.Categories, vocabulary)
	if err != nil {
		return domain.ImageClassification{}, err
	}

	return s.coerce(guess, vocabulary), nil
}

// SelectKeyword picks the closest existing keyword for free text.
func (s *Service) SelectKeyword(ctx context.Context, text string) match.Result {
	if text == "" {
		return match.NotFound()
	}

	vocabulary, err := s.kwRepo.Vocabulary(ctx)
	if err != nil {
		return match.Unavailable(fmt.Errorf("load vocabulary: %w", err))
	}
	return s.norm.Keyword(ctx, text, vocabulary)
}

func (s *Service) coerce(guess domain.ImageClassification, vocabulary []string) domain.ImageClassification {
	out := domain.ImageClassification{}

	if vocab.Contains(vocab.Colors, guess.Color) {
		out.Color = guess.Color
	} else if guess.Color != "" {
		s.logger.Debug("classifier color outside enumeration", zap.String("color", guess.Color))
	}

	if vocab.Contains(vocab.Categories, guess.Category) {
		out.Category = guess.Category
	} else if guess.Category != "" {
		s.logger.Debug("classifier category outside enumeration", zap.String("category", guess.Category))
	}

	tags := make([]string, 0, maxTags)
	for _, tag := range guess.Tags {
		if len(tags) == maxTags {
			break
		}
		if vocab.Contains(vocabulary, tag) {
			tags = append(tags, tag)
		}
	}
	out.Tags = tags

	return out
}
