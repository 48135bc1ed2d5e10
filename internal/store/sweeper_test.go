package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/doccache/internal/store"
	"github.com/dotcommander/doccache/internal/store/memory"
)

func TestSweeper_SweepOnceRemovesOnlyExpired(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{}
	coll := memory.New(0).Collection("cache")
	s := store.New(coll, newTestCodec(t), "p:", store.WithClock(clock.Now))

	clock.Set(0)
	require.NoError(t, s.Put(ctx, "short", "x", 1))
	require.NoError(t, s.Put(ctx, "long", "y", 10))

	clock.Set(60)
	n, err := store.NewSweeper(s, time.Minute).SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []string{"p:long"}, coll.Keys())
}

func TestSweeper_UnsupportedCollection(t *testing.T) {
	s := store.New(&mockCollection{}, newTestCodec(t), "")
	w := store.NewSweeper(s, 0)

	_, err := w.SweepOnce(context.Background())
	require.ErrorIs(t, err, store.ErrSweepUnsupported)

	err = w.Run(context.Background())
	require.ErrorIs(t, err, store.ErrSweepUnsupported)
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clock := &fakeClock{}
	coll := memory.New(0).Collection("cache")
	s := store.New(coll, newTestCodec(t), "", store.WithClock(clock.Now))

	clock.Set(0)
	require.NoError(t, s.Put(ctx, "k", "v", 1))
	clock.Set(3600)

	done := make(chan error, 1)
	go func() { done <- store.NewSweeper(s, 5*time.Millisecond).Run(ctx) }()

	require.Eventually(t, func() bool { return coll.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
