package models

import "errors"

// ErrDuplicateKey is returned by a collection's Insert when a record with the
// same key already exists.
var ErrDuplicateKey = errors.New("duplicate key")

// RecoverableError is implemented by enriched errors that carry structured
// context and remediation hints. The codec, store and output packages use this
// interface to avoid an import cycle.
type RecoverableError interface {
	error
	ErrorCode() string
	Context() map[string]string
	SuggestedAction() string
}
