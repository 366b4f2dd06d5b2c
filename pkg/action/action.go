// Package action defines the tagged action variants a component
// request carries and the wire decoding for them.
package action

import (
	"encoding/json"
	"fmt"
)

// Wire action type tags.
const (
	TypeSyncInput  = "syncInput"
	TypeDBInput    = "dbInput"
	TypeCallMethod = "callMethod"
)

// Action is one queued action. Exactly one variant field is non-nil
// for the recognized type tags; an unknown tag keeps only Type set
// and is rejected by the dispatcher.
type Action struct {
	Type   string          `json:"type" msgpack:"type"`
	Sync   *SyncInput      `json:"sync,omitempty" msgpack:"sync,omitempty"`
	Record *RecordMutation `json:"record,omitempty" msgpack:"record,omitempty"`
	Call   *MethodCall     `json:"call,omitempty" msgpack:"call,omitempty"`
}

// SyncInput writes one property through a dotted path.
type SyncInput struct {
	Path  string `json:"name" msgpack:"name"`
	Value any    `json:"value" msgpack:"value"`
}

// RecordMutation creates or updates one persisted record. The target
// record type resolves through ModelField (a named component field)
// when set, else through the component's model registry by Name.
// A nil Key creates a new record; a non-nil Key updates by key.
type RecordMutation struct {
	ModelField string         `json:"model" msgpack:"model"`
	Name       string         `json:"db_name" msgpack:"db_name"`
	Key        any            `json:"pk" msgpack:"pk"`
	Fields     map[string]any `json:"fields" msgpack:"fields"`
}

// MethodCall invokes a component method, or performs a property
// assignment when the expression is of the form "path = literal".
type MethodCall struct {
	Expression string `json:"name" msgpack:"name"`
}

// Wire is the JSON encoding of one queued action.
type Wire struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type dbPayload struct {
	Model string `json:"model"`
	DB    struct {
		Name string `json:"name"`
		PK   any    `json:"pk"`
	} `json:"db"`
	Fields map[string]any `json:"fields"`
}

// Decode converts one wire action into its typed variant. An unknown
// type tag is preserved without a variant; the dispatcher rejects it
// when processing the queue.
func Decode(w Wire) (Action, error) {
	act := Action{Type: w.Type}
	payload := w.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	switch w.Type {
	case TypeSyncInput:
		var sync SyncInput
		if err := json.Unmarshal(payload, &sync); err != nil {
			return Action{}, fmt.Errorf("action: decode %s payload: %w", w.Type, err)
		}
		act.Sync = &sync
	case TypeDBInput:
		var db dbPayload
		if err := json.Unmarshal(payload, &db); err != nil {
			return Action{}, fmt.Errorf("action: decode %s payload: %w", w.Type, err)
		}
		act.Record = &RecordMutation{
			ModelField: db.Model,
			Name:       db.DB.Name,
			Key:        db.DB.PK,
			Fields:     db.Fields,
		}
	case TypeCallMethod:
		var call MethodCall
		if err := json.Unmarshal(payload, &call); err != nil {
			return Action{}, fmt.Errorf("action: decode %s payload: %w", w.Type, err)
		}
		act.Call = &call
	}
	return act, nil
}

// DecodeQueue converts a wire action queue in order.
func DecodeQueue(wires []Wire) ([]Action, error) {
	queue := make([]Action, 0, len(wires))
	for _, w := range wires {
		act, err := Decode(w)
		if err != nil {
			return nil, err
		}
		queue = append(queue, act)
	}
	return queue, nil
}
