package badger

import (
	"encoding/json"
	"fmt"
)

// Entities are stored as JSON: rows are small, and JSON keeps the database
// inspectable with badger's own tooling.

func encode[T any](kind string, v *T) ([]byte, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", kind, err)
	}
	return bytes, nil
}

func decode[T any](kind string, bytes []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(bytes, &v); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
	}
	return &v, nil
}
