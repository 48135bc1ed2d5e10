package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordExpired_BoundaryIsExpired(t *testing.T) {
	r := Record{Key: "prefixfoo", Value: "x", Expiration: time.Unix(61, 0)}

	require.False(t, r.Expired(time.Unix(30, 0)))
	require.False(t, r.Expired(time.Unix(60, 999_000_000)))
	require.True(t, r.Expired(time.Unix(61, 0)))
	require.True(t, r.Expired(time.Unix(62, 0)))
}
