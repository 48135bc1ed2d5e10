package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrEncoding matches any *EncodingError via errors.Is.
	ErrEncoding = errors.New("encoding error")
	// ErrDecoding matches any *DecodingError via errors.Is.
	ErrDecoding = errors.New("decoding error")
)

// EncodingError means a value could not be serialized or encrypted. Nothing
// was written.
type EncodingError struct {
	Stage string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode value (%s): %v", e.Stage, e.Err)
}
func (e *EncodingError) Unwrap() error     { return e.Err }
func (e *EncodingError) Is(t error) bool   { return t == ErrEncoding }
func (e *EncodingError) ErrorCode() string { return "ENCODING_ERROR" }
func (e *EncodingError) Context() map[string]string {
	return map[string]string{"stage": e.Stage}
}
func (e *EncodingError) SuggestedAction() string {
	return "store a JSON-serializable value; use []byte for binary data"
}

// DecodingError means a stored payload could not be decrypted or
// deserialized. The record is left in place.
type DecodingError struct {
	Stage string
	Err   error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decode value (%s): %v", e.Stage, e.Err)
}
func (e *DecodingError) Unwrap() error     { return e.Err }
func (e *DecodingError) Is(t error) bool   { return t == ErrDecoding }
func (e *DecodingError) ErrorCode() string { return "DECODING_ERROR" }
func (e *DecodingError) Context() map[string]string {
	return map[string]string{"stage": e.Stage}
}
func (e *DecodingError) SuggestedAction() string {
	return "check the encryption key, or forget the key and write it again"
}
