// Package item persists lost-item records as JSON documents with an FT index
// over the filterable fields.
package item

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/civic-cloud/lostfound/internal/db"
	"github.com/civic-cloud/lostfound/internal/domain"
	domitem "github.com/civic-cloud/lostfound/internal/domain/item"
	"github.com/civic-cloud/lostfound/internal/domain/query"
)

// pageSize is the FT.SEARCH page size used by List.
const pageSize = 100

// store is the consumer interface for lost-item records (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	DelMulti(ctx context.Context, keys []string) (int, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	Search(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index string, f query.Filter) (int, error)
}

// Repo implements the record store gateway over a JSON document store.
type Repo struct {
	store           store
	keyPrefix       string
	deleteBatchSize int
}

// New creates a lost-item repository. keyPrefix namespaces every key and the
// index name; deleteBatchSize bounds DeleteAll batches.
func New(s store, keyPrefix string, deleteBatchSize int) *Repo {
	if deleteBatchSize <= 0 {
		deleteBatchSize = 100
	}
	return &Repo{store: s, keyPrefix: keyPrefix, deleteBatchSize: deleteBatchSize}
}

// EnsureIndex creates the record FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("ft.info %s: %w", r.indexName(), err)
	}
	if exists {
		return nil
	}

	def, err := r.indexDefinition()
	if err != nil {
		return fmt.Errorf("index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("ft.create %s: %w", r.indexName(), err)
	}
	return nil
}

// RebuildIndex drops and recreates the record FT index. The server re-indexes
// existing documents in the background after FT.CREATE.
func (r *Repo) RebuildIndex(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.indexName()); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("ft.dropindex %s: %w", r.indexName(), err)
	}

	def, err := r.indexDefinition()
	if err != nil {
		return fmt.Errorf("index definition: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("ft.create %s: %w", r.indexName(), err)
	}
	return nil
}

// Count returns the number of indexed records.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(), query.Filter{})
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Put stores a validated record, replacing any previous version.
func (r *Repo) Put(ctx context.Context, rec *domitem.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	data, err := encodeStored(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.ID, err)
	}

	key := r.recordKey(rec.ID)
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Get returns a record by id.
func (r *Repo) Get(ctx context.Context, id string) (domitem.Record, error) {
	key := r.recordKey(id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domitem.Record{}, domain.ErrItemNotFound
		}
		return domitem.Record{}, fmt.Errorf("json.get %s: %w", key, err)
	}
	return decodeStored(raw)
}

// List returns every record matching the filter. An empty result is an empty
// slice, not an error. Pages through FT.SEARCH until the full match set is
// collected.
func (r *Repo) List(ctx context.Context, f query.Filter) ([]domitem.Record, error) {
	records := make([]domitem.Record, 0)
	offset := 0

	for {
		result, err := r.store.Search(ctx, &db.FilterQuery{
			IndexName:    r.indexName(),
			Filter:       f,
			Offset:       offset,
			Limit:        pageSize,
			ReturnFields: []string{"$"},
		})
		if err != nil {
			return nil, fmt.Errorf("search records: %w", err)
		}
		if len(result.Entries) == 0 {
			break
		}

		for _, entry := range result.Entries {
			rec, err := decodeStored([]byte(entry.Fields["$"]))
			if err != nil {
				return nil, fmt.Errorf("decode record %s: %w", entry.Key, err)
			}
			records = append(records, rec)
		}

		offset += len(result.Entries)
		if offset >= result.Total {
			break
		}
	}

	return records, nil
}

// ListBySubcategory returns records whose category name equals categoryName.
// An empty match set is a not-found condition.
func (r *Repo) ListBySubcategory(ctx context.Context, categoryName string) ([]domitem.Record, error) {
	p, err := query.CategoryEquals(categoryName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrValidation)
	}
	f, err := query.NewFilter(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrValidation)
	}

	records, err := r.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.ErrItemNotFound
	}
	return records, nil
}

// Update applies a shallow field-level merge onto a stored record and stamps
// dateUpdated. When place is non-empty it must match the stored partition key;
// a mismatch is indistinguishable from a missing record. id and
// createUserPlace are never overwritten.
func (r *Repo) Update(
	ctx context.Context, id, place string, updates map[string]json.RawMessage, now time.Time,
) (domitem.Record, error) {
	key := r.recordKey(id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domitem.Record{}, domain.ErrItemNotFound
		}
		return domitem.Record{}, fmt.Errorf("json.get %s: %w", key, err)
	}

	current, err := decodeStoredMap(raw)
	if err != nil {
		return domitem.Record{}, fmt.Errorf("decode record %s: %w", key, err)
	}

	if place != "" && !partitionMatches(current, place) {
		return domitem.Record{}, domain.ErrItemNotFound
	}

	merged := domitem.Merge(current, updates, now)

	rec, err := recordFromMap(merged)
	if err != nil {
		return domitem.Record{}, fmt.Errorf("merged record %s: %w", key, err)
	}

	data, err := encodeStored(&rec)
	if err != nil {
		return domitem.Record{}, fmt.Errorf("marshal record %s: %w", key, err)
	}
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return domitem.Record{}, fmt.Errorf("json.set %s: %w", key, err)
	}

	return rec, nil
}

// UpdateKeywords replaces the keyword list of a record and marks it reviewed.
func (r *Repo) UpdateKeywords(
	ctx context.Context, id string, keywords []string, now time.Time,
) (domitem.Record, error) {
	kw, err := json.Marshal(keywords)
	if err != nil {
		return domitem.Record{}, fmt.Errorf("marshal keywords: %w", err)
	}

	updates := map[string]json.RawMessage{
		"keyword":   kw,
		"isChecked": json.RawMessage("true"),
	}
	return r.Update(ctx, id, "", updates, now)
}

// Delete removes a record by id and returns the deleted record.
func (r *Repo) Delete(ctx context.Context, id string) (domitem.Record, error) {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return domitem.Record{}, err
	}

	key := r.recordKey(id)
	if err := r.store.Del(ctx, key); err != nil {
		return domitem.Record{}, fmt.Errorf("del %s: %w", key, err)
	}
	return rec, nil
}

// DeleteAll removes every record in batches and returns the number deleted.
// Per-batch failures do not abort the sweep; an incomplete sweep is reported
// as a PartialDeleteError carrying the successful count.
func (r *Repo) DeleteAll(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, r.keyPrefix+"item:*")
	if err != nil {
		return 0, fmt.Errorf("scan records: %w", err)
	}

	deleted := 0
	var firstErr error
	for start := 0; start < len(keys); start += r.deleteBatchSize {
		end := start + r.deleteBatchSize
		if end > len(keys) {
			end = len(keys)
		}

		n, err := r.store.DelMulti(ctx, keys[start:end])
		deleted += n
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		return deleted, domain.NewPartialDelete(deleted, len(keys)-deleted, firstErr)
	}
	return deleted, nil
}

func (r *Repo) recordKey(id string) string {
	return r.keyPrefix + "item:" + id
}

func (r *Repo) indexName() string {
	return r.keyPrefix + "item:idx"
}

// indexDefinition declares the FT index over the filterable record fields.
// The found-timestamp is a shadow numeric maintained by the dto layer.
func (r *Repo) indexDefinition() (*db.IndexDefinition, error) {
	return db.NewIndex(r.indexName()).
		OnJSON().
		Prefix(r.keyPrefix + "item:").
		TagAs("$.createUserPlace", query.FieldPlace).
		TagAs("$.item.categoryName", query.FieldCategory).
		TagAs("$.color.id", query.FieldColorID).
		TagAs("$.keyword[*]", query.FieldKeyword).
		NumericAs("$."+shadowFoundTS, query.FieldFoundTS).
		Build()
}

func partitionMatches(current map[string]json.RawMessage, place string) bool {
	raw, ok := current["createUserPlace"]
	if !ok {
		return false
	}
	var stored string
	if err := json.Unmarshal(raw, &stored); err != nil {
		return false
	}
	return stored == place
}
