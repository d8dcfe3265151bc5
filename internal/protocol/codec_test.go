package protocol

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()

	env := Envelope{
		ID:       "env-1",
		Type:     MessageTypeCommand,
		Token:    "token",
		Metadata: map[string]interface{}{"action": ActionMaterialLike},
		Payload:  MaterialRef{ID: "m1"},
	}
	require.NoError(t, NewEncoder(&buf).Encode(ctx, env))
	require.NoError(t, NewEncoder(&buf).Encode(ctx, Envelope{ID: "env-2", Type: MessageTypeAck}))

	decoder := NewDecoder(&buf, 0)
	got, err := decoder.Decode(ctx)
	require.NoError(t, err)
	require.Equal(t, "env-1", got.ID)
	require.Equal(t, ActionMaterialLike, got.Action())

	ref, err := DecodePayload[MaterialRef](got.Payload)
	require.NoError(t, err)
	require.Equal(t, "m1", ref.ID)

	second, err := decoder.Decode(ctx)
	require.NoError(t, err)
	require.Equal(t, MessageTypeAck, second.Type)
	require.Empty(t, second.Action())
}

func TestDecodeRejectsOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(context.Background(), Envelope{ID: "big", Payload: MaterialUploadRequest{DataBase64: string(make([]byte, 256))}}))

	_, err := NewDecoder(&buf, 64).Decode(context.Background())
	require.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestDecodeRejectsZeroLengthFrame(t *testing.T) {
	buf := bytes.NewBuffer(make([]byte, frameHeaderBytes))
	binary.BigEndian.PutUint32(buf.Bytes(), 0)

	_, err := NewDecoder(buf, 0).Decode(context.Background())
	require.Error(t, err)
}

func TestDecodeHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDecoder(bytes.NewBuffer([]byte{0, 0, 0, 1, '{'}), 0).Decode(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDecodePayloadEmpty(t *testing.T) {
	_, err := DecodePayload[MaterialRef](nil)
	require.ErrorIs(t, err, ErrEmptyPayload)
}
