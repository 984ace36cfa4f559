// Package keyword persists keyword-tagging rows as Redis hashes keyed by
// partition (item type) and a generated row key.
package keyword

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	domkw "github.com/civic-cloud/lostfound/internal/domain/keyword"
)

// store is the consumer interface for keyword rows (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the keyword store gateway.
type Repo struct {
	store     store
	keyPrefix string

	now   func() time.Time
	newID func() string
}

// New creates a keyword repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{
		store:     s,
		keyPrefix: keyPrefix,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// Add stores a keyword row. The partition key derives from the itemType field,
// the row key is generated; keyword text is not unique across rows.
func (r *Repo) Add(ctx context.Context, fields map[string]string) (domkw.Record, error) {
	rec := domkw.Record{
		PartitionKey: domkw.Partition(fields),
		RowKey:       r.newID(),
		CreatedAt:    r.now().UTC(),
		Fields:       make(map[string]string, len(fields)),
	}
	for k, v := range fields {
		rec.Fields[k] = v
	}

	key := r.rowKey(rec.PartitionKey, rec.RowKey)
	if err := r.store.HSet(ctx, key, encodeRow(&rec)); err != nil {
		return domkw.Record{}, fmt.Errorf("hset %s: %w", key, err)
	}
	return rec, nil
}

// Vocabulary returns the sorted distinct keyword strings across all rows.
// Rows without keyword text are skipped.
func (r *Repo) Vocabulary(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.keyPrefix+"keyword:*")
	if err != nil {
		return nil, fmt.Errorf("scan keyword rows: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load keyword rows: %w", err)
	}

	seen := make(map[string]bool)
	vocab := make([]string, 0, len(rows))
	for _, row := range rows {
		kw := row[fieldKeyword]
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		vocab = append(vocab, kw)
	}

	sort.Strings(vocab)
	return vocab, nil
}

func (r *Repo) rowKey(partition, row string) string {
	return r.keyPrefix + "keyword:" + partition + ":" + row
}

// Reserved hash field names alongside the caller-supplied fields.
const (
	fieldPartition = "partitionKey"
	fieldRowKey    = "rowKey"
	fieldCreatedAt = "createdAt"
	fieldKeyword   = "keyword"
)

func encodeRow(rec *domkw.Record) map[string]string {
	m := make(map[string]string, 3+len(rec.Fields))
	for k, v := range rec.Fields {
		m[k] = v
	}
	m[fieldPartition] = rec.PartitionKey
	m[fieldRowKey] = rec.RowKey
	m[fieldCreatedAt] = rec.CreatedAt.Format(time.RFC3339Nano)
	return m
}
