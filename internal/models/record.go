package models

import "time"

// Record is the persisted unit of the cache: one document per stored key.
//
// Key already carries the store prefix. Value is ciphertext text produced by
// the codec and is never plaintext. Expiration is always set and is compared
// at whole-second resolution.
type Record struct {
	Key        string    `json:"key" bson:"key"`
	Value      string    `json:"value" bson:"value"`
	Expiration time.Time `json:"expiration" bson:"expiration"`
}

// Expired reports whether the record is stale at now. The boundary instant
// counts as expired.
func (r Record) Expired(now time.Time) bool {
	return now.Unix() >= r.Expiration.Unix()
}
