package store

import (
	"encoding/json"
	"strings"

	"github.com/jsamuelsen11/storefeed/internal/domain"
)

// idPayload extracts the entity identifier every payload must carry.
type idPayload struct {
	ID string `json:"id"`
}

func payloadID(payload json.RawMessage) (string, error) {
	if len(payload) == 0 {
		return "", &domain.ValidationError{Fields: map[string]string{"payload": domain.MsgRequired}}
	}

	var p idPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", &domain.ValidationError{Fields: map[string]string{"payload": "invalid JSON object"}}
	}
	if strings.TrimSpace(p.ID) == "" {
		return "", &domain.ValidationError{Fields: map[string]string{"payload.id": domain.MsgRequired}}
	}
	return p.ID, nil
}

// createEntity replaces any existing entity with the payload.
func createEntity[E Entity](_ E, _ bool, payload json.RawMessage) (E, error) {
	var next E
	if err := json.Unmarshal(payload, &next); err != nil {
		return next, &domain.ValidationError{Fields: map[string]string{"payload": err.Error()}}
	}
	return next, nil
}

// mergeEntity decodes the payload over a copy of the current entity, so
// fields absent from the payload keep their values.
func mergeEntity[E Entity](current E, _ bool, payload json.RawMessage) (E, error) {
	next := current
	if err := json.Unmarshal(payload, &next); err != nil {
		return current, &domain.ValidationError{Fields: map[string]string{"payload": err.Error()}}
	}
	return next, nil
}

// changeStatus is a merge that requires the payload to name a status.
func changeStatus[E Entity](current E, exists bool, payload json.RawMessage) (E, error) {
	var p struct {
		Status *string `json:"status"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return current, &domain.ValidationError{Fields: map[string]string{"payload": err.Error()}}
	}
	if p.Status == nil {
		return current, &domain.ValidationError{Fields: map[string]string{"payload.status": domain.MsgRequired}}
	}
	return mergeEntity(current, exists, payload)
}
