package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/doccache/internal/store"
	"github.com/dotcommander/doccache/internal/store/memory"
)

type session struct {
	UserID int64             `json:"user_id"`
	Roles  []string          `json:"roles"`
	Flags  map[string]bool   `json:"flags"`
	Meta   map[string]string `json:"meta,omitempty"`
}

func TestTyped_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := store.New(memory.New(0).Collection("cache"), newTestCodec(t), "sess:")
	typed := store.NewTyped[session](s)

	in := session{UserID: 7, Roles: []string{"admin"}, Flags: map[string]bool{"beta": true}}
	require.NoError(t, typed.Put(ctx, "abc", in, 60))

	got, ok, err := typed.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, got)

	require.NoError(t, typed.Forget(ctx, "abc"))
	got, ok, err = typed.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, session{}, got)
}

func TestTyped_ForeverAndMiss(t *testing.T) {
	ctx := context.Background()
	s := store.New(memory.New(0).Collection("cache"), newTestCodec(t), "")
	counts := store.NewTyped[int](s)

	_, ok, err := counts.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, counts.Forever(ctx, "n", 42))
	n, ok, err := counts.Get(ctx, "n")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42, n)
}

func TestTyped_IncompatibleTypeIsDecodingError(t *testing.T) {
	ctx := context.Background()
	s := store.New(memory.New(0).Collection("cache"), newTestCodec(t), "")

	require.NoError(t, store.NewTyped[string](s).Put(ctx, "k", "text", 10))

	_, ok, err := store.NewTyped[int](s).Get(ctx, "k")
	require.Error(t, err)
	assert.False(t, ok)
}
