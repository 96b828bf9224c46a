package services

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// decodeItems accepts the list shapes the backend uses interchangeably:
// a bare array, {"items": [...]}, or {"tracks": {"items": [...]}}.
func decodeItems[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}

	if raw[0] == '[' {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("failed to decode items: %w", err)
		}
		return items, nil
	}

	var wrapped struct {
		Items  []T `json:"items"`
		Tracks *struct {
			Items []T `json:"items"`
		} `json:"tracks"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}

	switch {
	case wrapped.Items != nil:
		return wrapped.Items, nil
	case wrapped.Tracks != nil && wrapped.Tracks.Items != nil:
		return wrapped.Tracks.Items, nil
	default:
		return []T{}, nil
	}
}
