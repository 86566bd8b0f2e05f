package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanbekhen/arus"
)

func setupStorage(t *testing.T) (*Storage, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	s, err := New(Config{Addr: mr.Addr(), Prefix: "test:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestNewFailsWithoutServer(t *testing.T) {
	_, err := New(Config{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestSetGet(t *testing.T) {
	assert := assert.New(t)
	s, mr := setupStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))
	assert.True(mr.Exists("test:k"), "keys carry the prefix")

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal("v", string(got))

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(err, arus.ErrNotFound)
}

func TestSetWithTTL(t *testing.T) {
	s, mr := setupStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("test:k"))

	require.NoError(t, s.Set(ctx, "forever", []byte("v"), -time.Second))
	assert.Equal(t, time.Duration(0), mr.TTL("test:forever"))
}

func TestHasAndDelete(t *testing.T) {
	assert := assert.New(t)
	s, _ := setupStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))
	ok, err := s.Has(ctx, "k")
	require.NoError(t, err)
	assert.True(ok)

	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"))
	ok, err = s.Has(ctx, "k")
	require.NoError(t, err)
	assert.False(ok)
}

func TestClearOnlyRemovesPrefixedKeys(t *testing.T) {
	assert := assert.New(t)
	s, mr := setupStorage(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("other", "keep"))
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, s.Set(ctx, k, []byte(k), 0))
	}

	require.NoError(t, s.Clear(ctx))
	for _, k := range []string{"a", "b", "c"} {
		ok, err := s.Has(ctx, k)
		require.NoError(t, err)
		assert.False(ok, k)
	}
	assert.True(mr.Exists("other"))
}

func TestCanceledContext(t *testing.T) {
	s, _ := setupStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Set(ctx, "k", nil, 0), context.Canceled)
}
