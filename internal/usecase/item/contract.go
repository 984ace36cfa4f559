package item

import (
	"context"
	"encoding/json"
	"time"

	domitem "github.com/civic-cloud/lostfound/internal/domain/item"
	"github.com/civic-cloud/lostfound/internal/domain/match"
	"github.com/civic-cloud/lostfound/internal/domain/query"
)

// Repository defines the record store contract.
type Repository interface {
	Put(ctx context.Context, rec *domitem.Record) error
	List(ctx context.Context, f query.Filter) ([]domitem.Record, error)
	ListBySubcategory(ctx context.Context, categoryName string) ([]domitem.Record, error)
	Update(ctx context.Context, id, place string, updates map[string]json.RawMessage, now time.Time) (domitem.Record, error)
	UpdateKeywords(ctx context.Context, id string, keywords []string, now time.Time) (domitem.Record, error)
	Delete(ctx context.Context, id string) (domitem.Record, error)
	DeleteAll(ctx context.Context) (int, error)
}

// Normalizer maps free-text filter criteria onto canonical vocabulary members.
type Normalizer interface {
	Location(ctx context.Context, text string) match.Result
	Category(ctx context.Context, text string) match.Result
	Keyword(ctx context.Context, text string, vocabulary []string) match.Result
}

// VocabularyReader reads the current keyword vocabulary.
type VocabularyReader interface {
	Vocabulary(ctx context.Context) ([]string, error)
}
