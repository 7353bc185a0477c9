// Package storage is the persistence bridge: it moves the whole
// application state in and out of a local snapshot file and a
// URL-embedded share payload. Both carry the same JSON document, so a
// state round-trips unchanged between them.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/frankie1ny/charitysuperbowl/internal/models"
)

// EncodeSnapshot serializes the state as the canonical JSON document.
func EncodeSnapshot(state models.AppState) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a JSON document back into a state. Any parse
// failure is total: callers fall back to the next state source rather
// than salvaging a partial state. Axes stored as null come back as
// empty slices so re-encoding emits [].
func DecodeSnapshot(data []byte) (models.AppState, error) {
	var state models.AppState
	if err := json.Unmarshal(data, &state); err != nil {
		return models.AppState{}, fmt.Errorf("decode snapshot: %w", err)
	}
	for i := range state.Pools {
		settings := &state.Pools[i].Settings
		if settings.RowNumbers == nil {
			settings.RowNumbers = []int{}
		}
		if settings.ColNumbers == nil {
			settings.ColNumbers = []int{}
		}
	}
	return state, nil
}
