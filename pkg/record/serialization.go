package record

import (
	"encoding/json"
	"fmt"
)

// Records are stored and exchanged as flat JSON objects: the id plus every field.
// This is the same shape as the external dataset, so a collection persisted by
// the store can be read back by the loader's sources and vice versa.

// MarshalJSON encodes the record as a flat object with an "id" key.
func (r Record) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		flat[k] = v
	}
	flat[FieldID] = r.ID
	return json.Marshal(flat)
}

// UnmarshalJSON decodes a flat object. The "id" key must be a string.
func (r *Record) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	rawID, ok := flat[FieldID]
	if !ok {
		return fmt.Errorf("record is missing %q", FieldID)
	}
	id, ok := rawID.(string)
	if !ok {
		return fmt.Errorf("record %q must be a string, got %T", FieldID, rawID)
	}

	delete(flat, FieldID)
	r.ID = id
	r.Fields = flat
	return nil
}

// FromMap builds a record from a decoded flat object (used for YAML seed files,
// which decode to map[string]any rather than through UnmarshalJSON).
func FromMap(flat map[string]any) (Record, error) {
	rawID, ok := flat[FieldID]
	if !ok {
		return Record{}, fmt.Errorf("record is missing %q", FieldID)
	}

	var id string
	switch v := rawID.(type) {
	case string:
		id = v
	case int, int64, uint64:
		id = fmt.Sprint(v)
	default:
		return Record{}, fmt.Errorf("record %q must be a string, got %T", FieldID, rawID)
	}

	return New(id, flat), nil
}
