package ledger

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TransferError is an ICRC-2 TransferFromError variant.
type TransferError struct {
	Kind    string
	Fields  map[string]uint64
	Message string
}

func (e *TransferError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ledger transfer rejected: %s: %s", e.Kind, e.Message)
	}
	if len(e.Fields) == 0 {
		return "ledger transfer rejected: " + e.Kind
	}
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s=%d", k, v))
	}
	return fmt.Sprintf("ledger transfer rejected: %s (%s)", e.Kind, strings.Join(parts, ", "))
}

// Known TransferFromError kinds.
const (
	TransferInsufficientFunds      = "InsufficientFunds"
	TransferInsufficientAllowance  = "InsufficientAllowance"
	TransferBadFee                 = "BadFee"
	TransferDuplicate              = "Duplicate"
	TransferTemporarilyUnavailable = "TemporarilyUnavailable"
	TransferGenericError           = "GenericError"
)

func decodeTransferError(raw json.RawMessage) error {
	var variant map[string]json.RawMessage
	if err := json.Unmarshal(raw, &variant); err != nil || len(variant) != 1 {
		return &TransferError{Kind: "Unknown", Message: strings.TrimSpace(string(raw))}
	}

	for kind, payload := range variant {
		te := &TransferError{Kind: kind}
		var fields map[string]json.RawMessage
		if json.Unmarshal(payload, &fields) == nil {
			for name, value := range fields {
				var n uint64
				if json.Unmarshal(value, &n) == nil {
					if te.Fields == nil {
						te.Fields = make(map[string]uint64)
					}
					te.Fields[name] = n
					continue
				}
				var s string
				if name == "message" && json.Unmarshal(value, &s) == nil {
					te.Message = s
				}
			}
		}
		return te
	}
	return nil
}
