package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedVariant is returned when a tagged variant does not carry exactly one key.
var ErrMalformedVariant = errors.New("variant must carry exactly one tag")

// encodeVariant renders a candid-style variant: {"Tag": payload}.
func encodeVariant(tag string, payload any) ([]byte, error) {
	return json.Marshal(map[string]any{tag: payload})
}

// decodeVariant splits {"Tag": payload} into its tag and raw payload.
func decodeVariant(data []byte) (string, json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return "", nil, fmt.Errorf("decode variant: %w", err)
	}
	if len(m) != 1 {
		return "", nil, fmt.Errorf("%w: got %d", ErrMalformedVariant, len(m))
	}
	for tag, raw := range m {
		return tag, raw, nil
	}
	return "", nil, ErrMalformedVariant
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
