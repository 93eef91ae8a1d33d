// Package protocol implements the binary wire framing used between the
// host and its clients: a one-byte message-type tag followed by a
// camelCase JSON payload.
package protocol

import (
	"encoding/json"
	"errors"
)

// Message type tags. Must match the client's MESSAGE_* constants.
const (
	Sync         byte = 0
	Awareness    byte = 1
	Auth         byte = 2
	DocList      byte = 3
	DocGet       byte = 4
	DocSave      byte = 5
	DocDelete    byte = 6
	DocEvent     byte = 7
	Error        byte = 8
	AuthResponse byte = 9
	JoinDoc      byte = 10
	AuthLogin    byte = 11
	DocShare     byte = 12
	DocTransfer  byte = 13
)

// ErrMalformed is returned by DecodePayload when a frame is too short
// to contain a payload, or its JSON does not parse.
var ErrMalformed = errors.New("malformed message")

// Encode frames payload behind msgType: one tag byte followed by its
// JSON encoding.
func Encode(msgType byte, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, msgType)
	out = append(out, body...)
	return out, nil
}

// DecodeType reads the leading tag byte, if any.
func DecodeType(data []byte) (byte, bool) {
	if len(data) == 0 {
		return 0, false
	}
	return data[0], true
}

// DecodePayload unmarshals everything after the tag byte into v. It
// fails with ErrMalformed for frames under two bytes or invalid JSON.
func DecodePayload(data []byte, v any) error {
	if len(data) < 2 {
		return ErrMalformed
	}
	if err := json.Unmarshal(data[1:], v); err != nil {
		return ErrMalformed
	}
	return nil
}
