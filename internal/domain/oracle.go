package domain

import "context"

// FewShot is a single input/output example included in a closest-match prompt.
type FewShot struct {
	Input  string
	Output string
}

// ImageClassification is the structured guess the oracle produces for a photo.
type ImageClassification struct {
	Color    string
	Category string
	Tags     []string
}

// Oracle is the external language-model service used for fuzzy text matching
// and image-based attribute extraction.
type Oracle interface {
	// SelectClosest asks the oracle for the choice closest to input.
	// The returned string is the raw oracle answer; callers enforce membership.
	SelectClosest(ctx context.Context, input string, choices []string, shots []FewShot) (string, error)

	// ClassifyImage asks the oracle for a structured guess constrained to the
	// given color/category enumerations and keyword vocabulary.
	ClassifyImage(
		ctx context.Context, image []byte, contentType string,
		colors, categories, keywords []string,
	) (ImageClassification, error)
}

// HealthChecker is implemented by collaborators that can check their backend.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
