package protocol

import (
	"encoding/json"
	"errors"
)

// ErrEmptyPayload is returned when an envelope carries no payload.
var ErrEmptyPayload = errors.New("empty payload")

// DecodePayload converts a generically decoded envelope payload into T.
func DecodePayload[T any](payload interface{}) (T, error) {
	var out T
	if payload == nil {
		return out, ErrEmptyPayload
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, err
	}
	return out, nil
}
