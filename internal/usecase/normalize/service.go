// Package normalize maps free-text filter criteria onto the fixed
// vocabularies through the classification oracle.
package normalize

import (
	"context"

	"go.uber.org/zap"

	"github.com/civic-cloud/lostfound/internal/domain"
	"github.com/civic-cloud/lostfound/internal/domain/match"
	"github.com/civic-cloud/lostfound/internal/domain/vocab"
)

// Service normalizes fuzzy user input into canonical vocabulary members.
type Service struct {
	oracle Oracle
	logger *zap.Logger
}

// New creates a normalizer.
func New(oracle Oracle, logger *zap.Logger) *Service {
	return &Service{oracle: oracle, logger: logger}
}

// Location matches free text against the municipality list.
func (s *Service) Location(ctx context.Context, text string) match.Result {
	return s.closest(ctx, text, vocab.Municipalities, vocab.MunicipalityShots)
}

// Category matches free text against the item category list.
func (s *Service) Category(ctx context.Context, text string) match.Result {
	return s.closest(ctx, text, vocab.Categories, vocab.CategoryShots)
}

// Keyword matches free text against the current keyword vocabulary. An empty
// vocabulary short-circuits without an oracle call.
func (s *Service) Keyword(ctx context.Context, text string, vocabulary []string) match.Result {
	if len(vocabulary) == 0 {
		return match.Unavailable(domain.ErrNoKeywords)
	}
	return s.closest(ctx, text, vocabulary, nil)
}

// closest asks the oracle and coerces the answer to a vocabulary member. An
// answer outside the vocabulary is a non-match, never a novel string.
func (s *Service) closest(
	ctx context.Context, text string, choices []string, shots []domain.FewShot,
) match.Result {
	if text == "" {
		return match.NotFound()
	}

	answer, err := s.oracle.SelectClosest(ctx, text, choices, shots)
	if err != nil {
		s.logger.Warn("closest-match lookup failed",
			zap.String("input", text), zap.Error(err))
		return match.Unavailable(err)
	}

	if !vocab.Contains(choices, answer) {
		s.logger.Debug("oracle answer outside vocabulary",
			zap.String("input", text), zap.String("answer", answer))
		return match.NotFound()
	}
	return match.Matched(answer)
}
