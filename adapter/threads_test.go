package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"goa.design/agui/runstream"
)

func TestThreadStoreCreatesOncePerThread(t *testing.T) {
	var created int
	factory := func(ctx context.Context, threadID string) (runstream.Agent, error) {
		created++
		return &fakeAgent{}, nil
	}

	store := NewThreadStore()
	ctx := context.Background()

	a1, err := store.Get(ctx, "t1", factory)
	require.NoError(t, err)
	a2, err := store.Get(ctx, "t1", factory)
	require.NoError(t, err)
	require.Same(t, a1, a2)
	require.Equal(t, 1, created)

	_, err = store.Get(ctx, "t2", factory)
	require.NoError(t, err)
	require.Equal(t, 2, created)
	require.Equal(t, 2, store.Len())
}

func TestThreadStoreRequiresThreadID(t *testing.T) {
	store := NewThreadStore()
	_, err := store.Get(context.Background(), "", func(ctx context.Context, threadID string) (runstream.Agent, error) {
		return &fakeAgent{}, nil
	})
	require.Error(t, err)
}

func TestThreadStoreFactoryErrors(t *testing.T) {
	store := NewThreadStore()
	ctx := context.Background()

	boom := errors.New("boom")
	_, err := store.Get(ctx, "t1", func(ctx context.Context, threadID string) (runstream.Agent, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, store.Len())

	// A failed creation is not cached; the next call retries.
	_, err = store.Get(ctx, "t1", func(ctx context.Context, threadID string) (runstream.Agent, error) {
		return &fakeAgent{}, nil
	})
	require.NoError(t, err)

	_, err = store.Get(ctx, "t2", func(ctx context.Context, threadID string) (runstream.Agent, error) {
		return nil, nil
	})
	require.Error(t, err)
}

func TestThreadStoreDelete(t *testing.T) {
	store := NewThreadStore()
	_, err := store.Get(context.Background(), "t1", func(ctx context.Context, threadID string) (runstream.Agent, error) {
		return &fakeAgent{}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	store.Delete("t1")
	require.Equal(t, 0, store.Len())
	store.Delete("t1")
}
