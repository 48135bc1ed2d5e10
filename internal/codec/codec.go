// Package codec turns cache values into opaque encrypted payloads and back.
//
// A payload is the base64 text of Encrypt(json(value)). The codec holds no
// mutable state; one instance is safe to share across goroutines as long as
// its Encrypter is.
package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
)

// Encrypter is the symmetric cipher primitive the codec delegates to. Key
// storage and rotation belong to whoever constructs it.
type Encrypter interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Codec serializes then encrypts values for storage.
type Codec struct {
	enc Encrypter
}

// New returns a Codec that encrypts with enc.
func New(enc Encrypter) *Codec {
	return &Codec{enc: enc}
}

// Encode serializes v as JSON, encrypts it and returns the base64 payload.
// Strings that are not valid UTF-8 are rejected rather than altered.
func (c *Codec) Encode(v any) (string, error) {
	plain, err := json.Marshal(v)
	if err != nil {
		return "", &EncodingError{Stage: "serialize", Err: err}
	}
	if err := checkUTF8(reflect.ValueOf(v), "value"); err != nil {
		return "", &EncodingError{Stage: "serialize", Err: err}
	}

	sealed, err := c.enc.Encrypt(plain)
	if err != nil {
		return "", &EncodingError{Stage: "encrypt", Err: err}
	}

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decode reverses Encode, unmarshalling the plaintext into dest. dest must be
// a non-nil pointer.
func (c *Codec) Decode(payload string, dest any) error {
	sealed, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return &DecodingError{Stage: "base64", Err: err}
	}

	plain, err := c.enc.Decrypt(sealed)
	if err != nil {
		return &DecodingError{Stage: "decrypt", Err: err}
	}

	if err := json.Unmarshal(plain, dest); err != nil {
		return &DecodingError{Stage: "deserialize", Err: fmt.Errorf("into %T: %w", dest, err)}
	}
	return nil
}
