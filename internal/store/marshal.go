package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/xbridge/internal/ir"
)

// marshalMessage converts a message to JSON TEXT for storage.
// Storage form is plain JSON; content hashes are computed separately over the
// canonical encoding, so the column format never affects identity.
func marshalMessage(msg ir.Message) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}
	return string(data), nil
}

// unmarshalMessage parses JSON TEXT into a message.
func unmarshalMessage(data string) (ir.Message, error) {
	var msg ir.Message
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		return ir.Message{}, fmt.Errorf("unmarshal message: %w", err)
	}
	return msg, nil
}
