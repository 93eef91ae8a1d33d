package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_DocListRequest(t *testing.T) {
	req := DocListRequest{RequestID: "req-123"}

	encoded, err := Encode(DocList, req)
	require.NoError(t, err)
	assert.Equal(t, DocList, encoded[0])

	tag, ok := DecodeType(encoded)
	require.True(t, ok)
	assert.Equal(t, DocList, tag)

	var decoded DocListRequest
	require.NoError(t, DecodePayload(encoded, &decoded))
	assert.Equal(t, "req-123", decoded.RequestID)
}

func TestEncodeDecode_DocEvent(t *testing.T) {
	event := DocEventMsg{
		EventType: DocEventCreated,
		DocID:     "doc-1",
		UserID:    "user-1",
	}

	encoded, err := Encode(DocEvent, event)
	require.NoError(t, err)
	assert.Equal(t, DocEvent, encoded[0])

	var decoded DocEventMsg
	require.NoError(t, DecodePayload(encoded, &decoded))
	assert.Equal(t, DocEventCreated, decoded.EventType)
	assert.Equal(t, "doc-1", decoded.DocID)
}

func TestDecodeType_Empty(t *testing.T) {
	_, ok := DecodeType(nil)
	assert.False(t, ok)
}

func TestDecodePayload_TooShort(t *testing.T) {
	var v DocListRequest
	err := DecodePayload([]byte{DocList}, &v)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodePayload_InvalidJSON(t *testing.T) {
	var v DocListRequest
	data := append([]byte{DocList}, []byte("not json")...)
	err := DecodePayload(data, &v)
	assert.ErrorIs(t, err, ErrMalformed)
}
