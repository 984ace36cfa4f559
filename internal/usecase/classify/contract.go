package classify

import (
	"context"

	"github.com/civic-cloud/lostfound/internal/domain"
	"github.com/civic-cloud/lostfound/internal/domain/match"
)

// Oracle performs image-based attribute extraction.
type Oracle interface {
	ClassifyImage(
		ctx context.Context, image []byte, contentType string,
		colors, categories, keywords []string,
	) (domain.ImageClassification, error)
}

// Normalizer matches free text against the keyword vocabulary.
type Normalizer interface {
	Keyword(ctx context.Context, text string, vocabulary []string) match.Result
}

// VocabularyReader reads the current keyword vocabulary.
type VocabularyReader interface {
	Vocabulary(ctx context.Context) ([]string, error)
}
