package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/doccache/internal/codec"
)

// TestRecoverableError_Is verifies each struct type matches its own sentinel
// via errors.Is and does not cross-match other sentinels.
func TestRecoverableError_Is(t *testing.T) {
	unsupported := &UnsupportedOperationError{Operation: "increment", Key: "hits", Delta: 1}
	encoding := &codec.EncodingError{Stage: "serialize", Err: errors.New("boom")}
	decoding := &codec.DecodingError{Stage: "decrypt", Err: errors.New("boom")}

	assert.ErrorIs(t, unsupported, ErrUnsupportedOperation)
	assert.ErrorIs(t, encoding, codec.ErrEncoding)
	assert.ErrorIs(t, decoding, codec.ErrDecoding)

	assert.False(t, errors.Is(unsupported, codec.ErrEncoding), "UnsupportedOperationError should not match ErrEncoding")
	assert.False(t, errors.Is(unsupported, codec.ErrDecoding), "UnsupportedOperationError should not match ErrDecoding")
	assert.False(t, errors.Is(encoding, ErrUnsupportedOperation), "EncodingError should not match ErrUnsupportedOperation")
	assert.False(t, errors.Is(encoding, codec.ErrDecoding), "EncodingError should not match ErrDecoding")
	assert.False(t, errors.Is(decoding, ErrUnsupportedOperation), "DecodingError should not match ErrUnsupportedOperation")
	assert.False(t, errors.Is(decoding, codec.ErrEncoding), "DecodingError should not match ErrEncoding")
}

func TestRecoverableError_ErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      RecoverableError
		wantCode string
	}{
		{
			name:     "UnsupportedOperationError",
			err:      &UnsupportedOperationError{Operation: "decrement", Key: "hits", Delta: 2},
			wantCode: "UNSUPPORTED_OPERATION",
		},
		{
			name:     "EncodingError",
			err:      &codec.EncodingError{Stage: "encrypt", Err: errors.New("x")},
			wantCode: "ENCODING_ERROR",
		},
		{
			name:     "DecodingError",
			err:      &codec.DecodingError{Stage: "base64", Err: errors.New("x")},
			wantCode: "DECODING_ERROR",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantCode, tc.err.ErrorCode())
			assert.NotEmpty(t, tc.err.SuggestedAction())
		})
	}
}

func TestUnsupportedOperationError_Context(t *testing.T) {
	e := &UnsupportedOperationError{Operation: "decrement", Key: "app:hits", Delta: -7}
	ctx := e.Context()
	require.Contains(t, ctx, "operation")
	require.Contains(t, ctx, "key")
	require.Contains(t, ctx, "delta")
	assert.Equal(t, "decrement", ctx["operation"])
	assert.Equal(t, "app:hits", ctx["key"])
	assert.Equal(t, "-7", ctx["delta"])
	assert.Contains(t, e.Error(), "decrement")
}

// TestRecoverableError_WrappedIs verifies errors.Is and errors.As work through
// fmt.Errorf %w wrapping chains.
func TestRecoverableError_WrappedIs(t *testing.T) {
	wrapped := fmt.Errorf("cache get %q: %w", "k", &codec.DecodingError{Stage: "decrypt", Err: errors.New("auth")})
	assert.ErrorIs(t, wrapped, codec.ErrDecoding)

	var re RecoverableError
	require.ErrorAs(t, wrapped, &re)
	assert.Equal(t, "DECODING_ERROR", re.ErrorCode())
	assert.Equal(t, "decrypt", re.Context()["stage"])

	double := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", &UnsupportedOperationError{Operation: "increment"}))
	assert.ErrorIs(t, double, ErrUnsupportedOperation)
}
