package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mibandtool/wftool/internal/storage"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "wftool.db")
	s, err := New(path)
	require.NoError(t, err)
	return s, path
}

func TestSetGetDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	defer s.Close()

	_, err := s.Get(ctx, storage.Durable, storage.KeyTheme)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, storage.Durable, storage.KeyTheme, "dark"))
	v, err := s.Get(ctx, storage.Durable, storage.KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "dark", v)

	// Buckets are independent namespaces.
	_, err = s.Get(ctx, storage.Temp, storage.KeyTheme)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Delete(ctx, storage.Durable, storage.KeyTheme, "never-set"))
	_, err = s.Get(ctx, storage.Durable, storage.KeyTheme)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestKeysAndClear(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	defer s.Close()

	for _, k := range []string{"b", "a", "c"} {
		require.NoError(t, s.Set(ctx, storage.Temp, k, k))
	}
	require.NoError(t, s.Set(ctx, storage.Durable, "keep", "1"))

	keys, err := s.Keys(ctx, storage.Temp)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, keys)

	require.NoError(t, s.Clear(ctx, storage.Temp))
	keys, err = s.Keys(ctx, storage.Temp)
	require.NoError(t, err)
	assert.Empty(t, keys)

	v, err := s.Get(ctx, storage.Durable, "keep")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t)
	require.NoError(t, s.Set(ctx, storage.Durable, storage.KeySelectedDevice, "n66"))
	require.NoError(t, s.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, err := reopened.Get(ctx, storage.Durable, storage.KeySelectedDevice)
	require.NoError(t, err)
	assert.Equal(t, "n66", v)
}

func TestUnknownBucketAndCancelledContext(t *testing.T) {
	s, _ := newTestStore(t)
	defer s.Close()

	err := s.Set(context.Background(), storage.Bucket("nope"), "k", "v")
	assert.ErrorIs(t, err, storage.ErrUnknownBucket)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Get(ctx, storage.Durable, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	defer s.Close()

	type cursor struct {
		Page int `json:"page"`
	}
	require.NoError(t, storage.SetJSON(ctx, s, storage.Temp, storage.KeyListing, cursor{Page: 3}))

	var got cursor
	require.NoError(t, storage.GetJSON(ctx, s, storage.Temp, storage.KeyListing, &got))
	assert.Equal(t, 3, got.Page)

	require.NoError(t, s.Set(ctx, storage.Temp, "bad", "{"))
	assert.Error(t, storage.GetJSON(ctx, s, storage.Temp, "bad", &got))

	v, err := storage.GetOr(ctx, s, storage.Durable, storage.KeyTheme, "light")
	require.NoError(t, err)
	assert.Equal(t, "light", v)
}
