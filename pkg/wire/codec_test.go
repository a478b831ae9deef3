package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeEnteredJSON(t *testing.T) {
	data, err := EncodeEntered(JSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"entered"}`, string(data))
	assert.False(t, JSON.Binary())
}

func TestEncodeEnteredCBOR(t *testing.T) {
	data, err := EncodeEntered(CBOR)
	require.NoError(t, err)
	assert.True(t, CBOR.Binary())

	typ, err := PeekType(CBOR, data)
	require.NoError(t, err)
	assert.Equal(t, TypeEntered, typ)
}

func TestPeekType(t *testing.T) {
	t.Run("Known", func(t *testing.T) {
		typ, err := PeekType(JSON, []byte(`{"type":"entered","extra":1}`))
		require.NoError(t, err)
		assert.Equal(t, TypeEntered, typ)
	})

	t.Run("Missing", func(t *testing.T) {
		typ, err := PeekType(JSON, []byte(`{"text":"hi"}`))
		require.NoError(t, err)
		assert.Equal(t, MessageType(""), typ)
		assert.Equal(t, "UNKNOWN", typ.String())
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := PeekType(JSON, []byte("not json"))
		assert.Error(t, err)
	})
}

func TestCodecByName(t *testing.T) {
	tests := []struct {
		name string
		want Codec
	}{
		{"", JSON},
		{"json", JSON},
		{"JSON", JSON},
		{"cbor", CBOR},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CodecByName(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Name(), got.Name())
		})
	}

	_, err := CodecByName("xml")
	assert.ErrorIs(t, err, ErrUnknownCodec)
}
