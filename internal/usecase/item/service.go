// Package item implements the lost-item operations: filtered listing, create,
// partial update, keyword tagging, and deletion.
package item

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civic-cloud/lostfound/internal/domain"
	domitem "github.com/civic-cloud/lostfound/internal/domain/item"
	"github.com/civic-cloud/lostfound/internal/domain/match"
	"github.com/civic-cloud/lostfound/internal/domain/query"
	"github.com/civic-cloud/lostfound/internal/domain/vocab"
)

// normalizeWorkers bounds the concurrent oracle calls for one list request.
const normalizeWorkers = 2

// Criteria are the raw list filters as supplied by the caller. Empty fields
// are unset.
type Criteria struct {
	Municipality string
	Category     string
	Color        string
	FreeText     string
	FindDate     string
}

// Service coordinates record operations.
type Service struct {
	repo   Repository
	norm   Normalizer
	kwRepo VocabularyReader
	logger *zap.Logger

	now   func() time.Time
	newID func() string
}

// New creates an item service.
func New(repo Repository, norm Normalizer, kwRepo VocabularyReader, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		norm:   norm,
		kwRepo: kwRepo,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// List returns records matching the normalized criteria. Oracle-backed
// criteria degrade gracefully: when a lookup fails or finds no canonical
// member, the criterion is dropped and the request continues.
func (s *Service) List(ctx context.Context, c Criteria) ([]domitem.Record, error) {
	f, err := s.buildFilter(ctx, c)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// BySubcategory returns records for an exact category name. The category is
// the core of the request, so an oracle-independent exact lookup is used and
// an empty result is a not-found condition.
func (s *Service) BySubcategory(ctx context.Context, subcategory string) ([]domitem.Record, error) {
	return s.repo.ListBySubcategory(ctx, subcategory)
}

// Create stores a new record with a server-assigned id and discovery
// timestamp. createUserPlace must be supplied by the caller.
func (s *Service) Create(ctx context.Context, rec *domitem.Record) (domitem.Record, error) {
	if rec.CreateUserPlace == "" {
		return domitem.Record{}, fmt.Errorf("createUserPlace is required: %w", domain.ErrValidation)
	}

	created := *rec
	created.ID = s.newID()
	if created.DateFound == nil {
		found := s.now().UTC()
		created.DateFound = &found
	}

	if err := s.repo.Put(ctx, &created); err != nil {
		return domitem.Record{}, fmt.Errorf("store record: %w", err)
	}
	return created, nil
}

// Update applies a partial merge onto an existing record. Updates are
// last-write-wins; there is no concurrency token.
func (s *Service) Update(
	ctx context.Context, id, place string, updates map[string]json.RawMessage,
) (domitem.Record, error) {
	if id == "" {
		return domitem.Record{}, fmt.Errorf("id is required: %w", domain.ErrValidation)
	}
	return s.repo.Update(ctx, id, place, updates, s.now().UTC())
}

// UpdateKeywords replaces the keyword list of a record and marks it reviewed.
func (s *Service) UpdateKeywords(ctx context.Context, id string, keywords []string) (domitem.Record, error) {
	if id == "" {
		return domitem.Record{}, fmt.Errorf("id is required: %w", domain.ErrValidation)
	}
	return s.repo.UpdateKeywords(ctx, id, keywords, s.now().UTC())
}

// Delete removes a record and returns it.
func (s *Service) Delete(ctx context.Context, id string) (domitem.Record, error) {
	if id == "" {
		return domitem.Record{}, fmt.Errorf("id is required: %w", domain.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}

// DeleteAll removes every record and returns the count.
func (s *Service) DeleteAll(ctx context.Context) (int, error) {
	return s.repo.DeleteAll(ctx)
}

// buildFilter normalizes the criteria into query predicates. The oracle-backed
// normalizations run in a bounded worker group.
func (s *Service) buildFilter(ctx context.Context, c Criteria) (query.Filter, error) {
	var (
		locRes, catRes, colorRes, kwRes match.Result
		needLoc                         = c.Municipality != ""
		needCat                         = c.Category != ""
		needColor                       = c.Color != ""
		needKw                          = c.FreeText != ""
	)

	jobs := make([]func(), 0, 4)
	if needLoc {
		jobs = append(jobs, func() { locRes = s.norm.Location(ctx, c.Municipality) })
	}
	if needCat {
		jobs = append(jobs, func() { catRes = s.norm.Category(ctx, c.Category) })
	}
	if needColor {
		jobs = append(jobs, func() { colorRes = s.normalizeColor(ctx, c.Color) })
	}
	if needKw {
		jobs = append(jobs, func() { kwRes = s.normalizeKeyword(ctx, c.FreeText) })
	}

	runBounded(jobs, normalizeWorkers)

	var f query.Filter
	if needLoc {
		f = s.applyCriterion(f, "municipality", c.Municipality, locRes, query.PlaceEquals)
	}
	if needCat {
		f = s.applyCriterion(f, "category", c.Category, catRes, query.CategoryEquals)
	}
	if needColor {
		f = s.applyCriterion(f, "color", c.Color, colorRes, query.ColorIDEquals)
	}
	if needKw {
		f = s.applyCriterion(f, "freeText", c.FreeText, kwRes, query.KeywordContains)
	}

	if c.FindDate != "" {
		if bound, ok := query.SinceTokenBound(c.FindDate, s.now()); ok {
			p, err := query.FoundSince(bound)
			if err != nil {
				return query.Filter{}, fmt.Errorf("%s: %w", err, domain.ErrValidation)
			}
			f = f.And(p)
		} else {
			s.logger.Debug("unknown findDate token dropped", zap.String("token", c.FindDate))
		}
	}

	return f, nil
}

// applyCriterion turns a match result into a predicate, dropping the
// criterion when the lookup failed or found nothing.
func (s *Service) applyCriterion(
	f query.Filter, name, input string, res match.Result,
	build func(string) (query.Predicate, error),
) query.Filter {
	v, ok := res.Value()
	if !ok {
		if err := res.Err(); err != nil {
			s.logger.Warn("filter criterion dropped",
				zap.String("criterion", name),
				zap.String("input", input),
				zap.Error(err))
		} else {
			s.logger.Debug("filter criterion had no canonical match",
				zap.String("criterion", name),
				zap.String("input", input))
		}
		return f
	}

	p, err := build(v)
	if err != nil {
		s.logger.Warn("filter criterion dropped",
			zap.String("criterion", name), zap.Error(err))
		return f
	}
	return f.And(p)
}

// normalizeColor matches free text against the color names and resolves the
// canonical name to its master id.
func (s *Service) normalizeColor(ctx context.Context, text string) match.Result {
	res := s.norm.Keyword(ctx, text, vocab.Colors)
	name, ok := res.Value()
	if !ok {
		return res
	}
	id, known := vocab.ColorID(name)
	if !known {
		return match.NotFound()
	}
	return match.Matched(id)
}

// normalizeKeyword fetches the current vocabulary and matches against it.
func (s *Service) normalizeKeyword(ctx context.Context, text string) match.Result {
	vocabulary, err := s.kwRepo.Vocabulary(ctx)
	if err != nil {
		return match.Unavailable(fmt.Errorf("load vocabulary: %w", err))
	}
	return s.norm.Keyword(ctx, text, vocabulary)
}

// runBounded executes jobs with at most limit running concurrently.
func runBounded(jobs []func(), limit int) {
	if len(jobs) == 0 {
		return
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(run func()) {
			defer wg.Done()
			defer func() { <-sem }()
			run()
		}(j)
	}
	wg.Wait()
}
