// Package keyword defines the keyword-tagging record held in the secondary
// tabular store.
package keyword

import "time"

// DefaultPartition is used when a row carries no itemType.
const DefaultPartition = "Unknown"

// Record is a keyword row: partition key = item-type category, row key =
// generated unique id, plus arbitrary caller-supplied fields. Keyword text is
// not unique across rows; duplicates are expected and collapsed only when the
// vocabulary is read.
type Record struct {
	PartitionKey string
	RowKey       string
	CreatedAt    time.Time
	Fields       map[string]string
}

// Keyword returns the keyword text carried by this row, if any.
func (r *Record) Keyword() string {
	return r.Fields["keyword"]
}

// Partition derives the partition key for a set of caller fields.
func Partition(fields map[string]string) string {
	if t := fields["itemType"]; t != "" {
		return t
	}
	return DefaultPartition
}
