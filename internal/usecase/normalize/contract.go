package normalize

import (
	"context"

	"github.com/civic-cloud/lostfound/internal/domain"
)

// Oracle performs closest-match selection against an enumerated vocabulary.
type Oracle interface {
	SelectClosest(ctx context.Context, input string, choices []string, shots []domain.FewShot) (string, error)
}
