package records

import (
	"encoding/json"
	"fmt"
)

// Marshal encodes r as its flat document form.
func Marshal(r *Record) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode %s record: %w", r.Kind, err)
	}
	return data, nil
}

// Unmarshal decodes a stored document and attaches id.
func Unmarshal(id string, data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}
	rec.ID = id
	if !rec.Kind.Valid() {
		return nil, fmt.Errorf("decode record %s: invalid kind %q", id, rec.Kind)
	}
	return &rec, nil
}
