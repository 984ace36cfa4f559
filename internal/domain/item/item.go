// Package item defines the lost-item record: a fixed set of typed optional
// fields plus a side map preserving any extra fields a caller supplies.
package item

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/civic-cloud/lostfound/internal/domain"
)

// Color describes the item color reference.
type Color struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// CurrencyUnit is one (denomination-id, count) pair.
type CurrencyUnit struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// Currency describes the currency contents of a found item.
type Currency struct {
	ForeignCurrency  *string        `json:"foreignCurrency,omitempty"`
	JapaneseCurrency []CurrencyUnit `json:"japaneseCurrency,omitempty"`
}

// Item describes the category classification of a record.
type Item struct {
	CategoryCode *string `json:"categoryCode,omitempty"`
	CategoryName *string `json:"categoryName,omitempty"`
	ItemName     *string `json:"itemName,omitempty"`
	ValuableFlg  *int    `json:"valuableFlg,omitempty"`
}

// Status is the handling status of a record.
type Status struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Record is a lost-item record. createUserPlace is the partition key; every
// field except id and createUserPlace is optional. Unknown fields supplied by
// a caller are kept verbatim in Extra and survive a marshal round-trip.
type Record struct {
	ID              string     `json:"id,omitempty"`
	CreateUserPlace string     `json:"createUserPlace,omitempty"`
	CreateUserID    *string    `json:"createUserID,omitempty"`
	DateFound       *time.Time `json:"dateFound,omitempty"`
	DateUpdated     *time.Time `json:"dateUpdated,omitempty"`
	Memo            *string    `json:"memo,omitempty"`
	Contact         *string    `json:"contact,omitempty"`
	FindPlace       *string    `json:"findPlace,omitempty"`
	MngmtNo         *string    `json:"mngmtNo,omitempty"`
	Personal        *string    `json:"personal,omitempty"`
	Color           *Color     `json:"color,omitempty"`
	Currency        *Currency  `json:"currency,omitempty"`
	Item            *Item      `json:"item,omitempty"`
	Status          *Status    `json:"status,omitempty"`
	ImageURL        []string   `json:"imageUrl,omitempty"`
	Keyword         []string   `json:"keyword,omitempty"`
	IsValuables     *bool      `json:"isValuables,omitempty"`
	IsChecked       *bool      `json:"isChecked,omitempty"`

	// Extra holds unrecognized fields verbatim. Never marshaled directly.
	Extra map[string]json.RawMessage `json:"-"`
}

// knownFields lists every JSON key owned by the typed part of Record.
var knownFields = []string{
	"id", "createUserPlace", "createUserID", "dateFound", "dateUpdated",
	"memo", "contact", "findPlace", "mngmtNo", "personal",
	"color", "currency", "item", "status",
	"imageUrl", "keyword", "isValuables", "isChecked",
}

// record avoids UnmarshalJSON recursion.
type record Record

// UnmarshalJSON decodes the typed fields and captures unrecognized keys in Extra.
func (r *Record) UnmarshalJSON(data []byte) error {
	var known record
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range knownFields {
		delete(all, k)
	}
	if len(all) > 0 {
		known.Extra = all
	}

	*r = Record(known)
	return nil
}

// MarshalJSON emits the typed fields plus every Extra field. A typed field
// wins over an Extra entry with the same key.
func (r Record) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(record(r))
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return base, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range r.Extra {
		if _, owned := merged[k]; !owned {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// Validate checks the addressability invariant: id and partition key are
// required on every stored record.
func (r *Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required: %w", domain.ErrValidation)
	}
	if r.CreateUserPlace == "" {
		return fmt.Errorf("createUserPlace is required: %w", domain.ErrValidation)
	}
	return nil
}

// protectedFields may never be overwritten by a partial update.
var protectedFields = map[string]bool{"id": true, "createUserPlace": true}

// Merge applies a shallow field-level merge of updates over current and stamps
// dateUpdated. Supplied fields overwrite whole values (a nested object
// replaces the nested object, it is not deep-merged); unsupplied fields keep
// their prior values. id and createUserPlace are immutable.
func Merge(current, updates map[string]json.RawMessage, now time.Time) map[string]json.RawMessage {
	merged := make(map[string]json.RawMessage, len(current)+len(updates))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range updates {
		if protectedFields[k] {
			continue
		}
		merged[k] = v
	}

	stamp, _ := json.Marshal(now.UTC().Format(time.RFC3339Nano))
	merged["dateUpdated"] = stamp

	return merged
}
