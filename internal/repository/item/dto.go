package item

import (
	"encoding/json"
	"fmt"
	"strconv"

	domitem "github.com/civic-cloud/lostfound/internal/domain/item"
)

// shadowFoundTS is a numeric copy of dateFound maintained alongside each
// stored record so the FT index can range-filter on discovery time. It never
// leaves the storage layer.
const shadowFoundTS = "__found_ts"

// encodeStored serializes a record for JSON.SET, adding the shadow timestamp.
func encodeStored(rec *domitem.Record) ([]byte, error) {
	base, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	if rec.DateFound == nil {
		return base, nil
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	m[shadowFoundTS] = json.RawMessage(strconv.FormatInt(rec.DateFound.Unix(), 10))
	return json.Marshal(m)
}

// decodeStored parses a stored document back into a record, stripping the
// shadow timestamp. Accepts both a bare object and the single-element array
// JSON.GET returns for the "$" path.
func decodeStored(data []byte) (domitem.Record, error) {
	m, err := decodeStoredMap(data)
	if err != nil {
		return domitem.Record{}, err
	}
	return recordFromMap(m)
}

// decodeStoredMap parses a stored document into a raw field map with the
// shadow timestamp removed.
func decodeStoredMap(data []byte) (map[string]json.RawMessage, error) {
	doc, err := unwrapPath(data)
	if err != nil {
		return nil, err
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, fmt.Errorf("unmarshal stored record: %w", err)
	}
	delete(m, shadowFoundTS)
	return m, nil
}

// recordFromMap converts a raw field map into a typed record.
func recordFromMap(m map[string]json.RawMessage) (domitem.Record, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return domitem.Record{}, err
	}
	var rec domitem.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return domitem.Record{}, err
	}
	return rec, nil
}

// unwrapPath strips the array wrapper JSON.GET adds around "$" results.
func unwrapPath(data []byte) (json.RawMessage, error) {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			var docs []json.RawMessage
			if err := json.Unmarshal(data, &docs); err != nil {
				return nil, fmt.Errorf("unwrap stored record: %w", err)
			}
			if len(docs) == 0 {
				return nil, fmt.Errorf("empty stored record")
			}
			return docs[0], nil
		default:
			return json.RawMessage(data), nil
		}
	}
	return nil, fmt.Errorf("empty stored record")
}
