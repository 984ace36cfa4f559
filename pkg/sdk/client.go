package lostfound

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/civic-cloud/lostfound/internal/db/redis"
	"github.com/civic-cloud/lostfound/internal/domain"
	domitem "github.com/civic-cloud/lostfound/internal/domain/item"
	domkw "github.com/civic-cloud/lostfound/internal/domain/keyword"
	"github.com/civic-cloud/lostfound/internal/domain/match"
	itemrepo "github.com/civic-cloud/lostfound/internal/repository/item"
	keywordrepo "github.com/civic-cloud/lostfound/internal/repository/keyword"
	openaiOracle "github.com/civic-cloud/lostfound/internal/transport/openai"
	classifyuc "github.com/civic-cloud/lostfound/internal/usecase/classify"
	healthuc "github.com/civic-cloud/lostfound/internal/usecase/health"
	itemuc "github.com/civic-cloud/lostfound/internal/usecase/item"
	normalizeuc "github.com/civic-cloud/lostfound/internal/usecase/normalize"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "lostfound:"
)

// Item is a lost-item record.
type Item = domitem.Record

// Criteria are the free-text search criteria for ListItems.
type Criteria = itemuc.Criteria

// Classification is the structured guess for an item photo.
type Classification = domain.ImageClassification

// KeywordRow is a stored keyword-vocabulary row.
type KeywordRow = domkw.Record

// Internal interfaces substituted in tests.
type itemUseCase interface {
	List(ctx context.Context, c itemuc.Criteria) ([]domitem.Record, error)
	BySubcategory(ctx context.Context, subcategory string) ([]domitem.Record, error)
	Create(ctx context.Context, rec *domitem.Record) (domitem.Record, error)
	Update(ctx context.Context, id, place string, updates map[string]json.RawMessage) (domitem.Record, error)
	UpdateKeywords(ctx context.Context, id string, keywords []string) (domitem.Record, error)
	Delete(ctx context.Context, id string) (domitem.Record, error)
	DeleteAll(ctx context.Context) (int, error)
}

type classifyUseCase interface {
	Image(ctx context.Context, image []byte, contentType string) (domain.ImageClassification, error)
	SelectKeyword(ctx context.Context, text string) match.Result
}

type keywordUseCase interface {
	Add(ctx context.Context, fields map[string]string) (domkw.Record, error)
	Vocabulary(ctx context.Context) ([]string, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the lostfound SDK entry point.
type Client struct {
	store    *dbRedis.Store
	items    itemUseCase
	classify classifyUseCase
	keywords keywordUseCase
	health   healthUseCase
}

// New creates a lostfound Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		keyPrefix: defaultKeyPrefix,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("lostfound: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:     cfg.addrs,
		Username:  cfg.username,
		Password:  cfg.password,
		DB:        cfg.db,
		OpTimeout: cfg.storeTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("lostfound: create store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("lostfound: database not ready: %w", err)
	}

	return wireClient(ctx, store, cfg)
}

func wireClient(ctx context.Context, store *dbRedis.Store, cfg *clientConfig) (*Client, error) {
	itemRepo := itemrepo.New(store, cfg.keyPrefix, cfg.deleteBatchSize)
	if err := itemRepo.EnsureIndex(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("lostfound: ensure index: %w", err)
	}
	keywordRepo := keywordrepo.New(store, cfg.keyPrefix)

	// Oracle: noop when not configured (exact lookups work, fuzzy
	// matching and classification return ErrOracleUnavailable).
	var oracle domain.Oracle = noopOracle{}
	var oracleChecker healthuc.OracleChecker
	if cfg.oracleAPIKey != "" || cfg.oracleBaseURL != "" {
		o := openaiOracle.New(&openaiOracle.Config{
			APIKey:      cfg.oracleAPIKey,
			BaseURL:     cfg.oracleBaseURL,
			Model:       cfg.oracleModel,
			VisionModel: cfg.oracleVisionModel,
			Timeout:     cfg.oracleTimeout,
			Logger:      cfg.logger,
		})
		oracle = o
		oracleChecker = o
	}

	normSvc := normalizeuc.New(oracle, cfg.logger)

	return &Client{
		store:    store,
		items:    itemuc.New(itemRepo, normSvc, keywordRepo, cfg.logger),
		classify: classifyuc.New(oracle, normSvc, keywordRepo, cfg.logger),
		keywords: keywordRepo,
		health:   healthuc.New(store, oracleChecker, nil),
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// ListItems searches records by free-text criteria. Criteria that cannot be
// normalized are dropped from the filter rather than failing the search.
func (c *Client) ListItems(ctx context.Context, criteria Criteria) ([]Item, error) {
	return c.items.List(ctx, criteria)
}

// ListBySubcategory returns records of an exact category name.
// An empty result is ErrItemNotFound.
func (c *Client) ListBySubcategory(ctx context.Context, subcategory string) ([]Item, error) {
	return c.items.BySubcategory(ctx, subcategory)
}

// CreateItem stores a new record, assigning the id and found date.
func (c *Client) CreateItem(ctx context.Context, rec *Item) (Item, error) {
	return c.items.Create(ctx, rec)
}

// UpdateItem shallow-merges a partial record onto an existing one. place, when
// non-empty, must match the record's partition key.
func (c *Client) UpdateItem(
	ctx context.Context, id, place string, updates map[string]json.RawMessage,
) (Item, error) {
	return c.items.Update(ctx, id, place, updates)
}

// UpdateItemKeywords replaces the keyword list of a record and marks it reviewed.
func (c *Client) UpdateItemKeywords(ctx context.Context, id string, keywords []string) (Item, error) {
	return c.items.UpdateKeywords(ctx, id, keywords)
}

// DeleteItem removes a record and returns it.
func (c *Client) DeleteItem(ctx context.Context, id string) (Item, error) {
	return c.items.Delete(ctx, id)
}

// DeleteAllItems removes every record and returns the count.
func (c *Client) DeleteAllItems(ctx context.Context) (int, error) {
	return c.items.DeleteAll(ctx)
}

// ClassifyImage asks the oracle for a structured {color, category, tags}
// guess constrained to the known enumerations and the keyword vocabulary.
func (c *Client) ClassifyImage(ctx context.Context, image []byte, contentType string) (Classification, error) {
	return c.classify.Image(ctx, image, contentType)
}

// SelectKeyword picks the closest existing vocabulary keyword for free text.
// matched is false when nothing acceptable exists; err reports oracle failure.
func (c *Client) SelectKeyword(ctx context.Context, text string) (keyword string, matched bool, err error) {
	res := c.classify.SelectKeyword(ctx, text)
	if e := res.Err(); e != nil && !errors.Is(e, domain.ErrNoKeywords) {
		return "", false, e
	}
	v, ok := res.Value()
	return v, ok, nil
}

// AddKeyword stores a keyword-vocabulary row. The itemType field selects the
// partition; the keyword field carries the text.
func (c *Client) AddKeyword(ctx context.Context, fields map[string]string) (KeywordRow, error) {
	return c.keywords.Add(ctx, fields)
}

// Vocabulary returns the sorted distinct keyword strings across all rows.
func (c *Client) Vocabulary(ctx context.Context) ([]string, error) {
	return c.keywords.Vocabulary(ctx)
}

// noopOracle fails every oracle call (used when no oracle is configured).
type noopOracle struct{}

func (noopOracle) SelectClosest(
	_ context.Context, _ string, _ []string, _ []domain.FewShot,
) (string, error) {
	return "", fmt.Errorf("lostfound: oracle not configured (use WithOracle): %w", domain.ErrOracleUnavailable)
}

func (noopOracle) ClassifyImage(
	_ context.Context, _ []byte, _ string, _, _, _ []string,
) (domain.ImageClassification, error) {
	return domain.ImageClassification{},
		fmt.Errorf("lostfound: oracle not configured (use WithOracle): %w", domain.ErrOracleUnavailable)
}
