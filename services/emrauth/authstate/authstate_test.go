package authstate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carebase/emrbackend/lib/myerrors"
	"github.com/carebase/emrbackend/lib/mytime"
)

func TestRoundTrip(t *testing.T) {
	original := State{
		UserID:       "user-123",
		ProviderID:   "epic",
		CreatedAt:    mytime.ExampleTime,
		CodeVerifier: "05796efe1e4ab16c314f2d402aa96f51c0fb54ae7b979349ca6b36410cc50b5a",
		Nonce:        "4f0cf5a8-e425-11ee-a919-cbbcb6b7c926",
	}

	encoded, err := Encode(original)
	assert.NoError(t, err)
	assert.NotContains(t, encoded, "=")
	assert.NotContains(t, encoded, "+")
	assert.NotContains(t, encoded, "/")

	decoded, err := Decode(encoded)
	assert.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestDecodeNotBase64(t *testing.T) {
	_, err := Decode("!!!not-base64!!!")
	assert.Error(t, err)
	assert.True(t, myerrors.IsKind(err, myerrors.KindInvalidState))
}

func TestDecodeTruncated(t *testing.T) {
	encoded, err := Encode(State{UserID: "user-123", ProviderID: "epic"})
	assert.NoError(t, err)

	_, err = Decode(encoded[:len(encoded)/2])
	assert.Error(t, err)
	assert.True(t, myerrors.IsKind(err, myerrors.KindInvalidState))
}

func TestDecodeNotJSON(t *testing.T) {
	_, err := Decode("bm90LWpzb24")
	assert.Error(t, err)
	assert.True(t, myerrors.IsKind(err, myerrors.KindInvalidState))
}

func TestDecodeMissingFields(t *testing.T) {
	encoded, err := Encode(State{UserID: "user-123"})
	assert.NoError(t, err)

	_, err = Decode(encoded)
	assert.Error(t, err)
	assert.True(t, myerrors.IsKind(err, myerrors.KindInvalidState))
	assert.True(t, strings.Contains(err.Error(), "misses"))
}
