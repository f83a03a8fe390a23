package store

import (
	"encoding/json"
	"fmt"

	"catapult/internal/registration/models"
)

const metadataVersion = 1

// metadata is the JSON document stored in registrations.metadata.
// Rows written before versioning carry only the actor.
type metadata struct {
	Version int                 `json:"version"`
	Actor   models.ActorRecord  `json:"actor"`
	Rollup  *models.RollupState `json:"rollup,omitempty"`
}

func encodeMetadata(actor models.ActorRecord, rollup models.RollupState) ([]byte, error) {
	if rollup.Version == 0 {
		rollup.Version = models.RollupStateVersion
	}
	raw, err := json.Marshal(metadata{Version: metadataVersion, Actor: actor, Rollup: &rollup})
	if err != nil {
		return nil, fmt.Errorf("encode registration metadata: %w", err)
	}
	return raw, nil
}

func decodeMetadata(raw []byte) (models.ActorRecord, models.RollupState, error) {
	var doc metadata
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.ActorRecord{}, models.RollupState{}, fmt.Errorf("decode registration metadata: %w", err)
	}
	if doc.Version > metadataVersion {
		return models.ActorRecord{}, models.RollupState{}, fmt.Errorf("unsupported registration metadata version %d", doc.Version)
	}
	var rollup models.RollupState
	if doc.Rollup != nil {
		rollup = *doc.Rollup
	}
	if rollup.Version > models.RollupStateVersion {
		return models.ActorRecord{}, models.RollupState{}, fmt.Errorf("unsupported rollup version %d", rollup.Version)
	}
	return doc.Actor, rollup, nil
}

func encodeRollup(rollup models.RollupState) ([]byte, error) {
	if rollup.Version == 0 {
		rollup.Version = models.RollupStateVersion
	}
	raw, err := json.Marshal(rollup)
	if err != nil {
		return nil, fmt.Errorf("encode rollup: %w", err)
	}
	return raw, nil
}
