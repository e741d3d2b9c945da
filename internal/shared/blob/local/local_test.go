package local

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-catalog/internal/shared/blob"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestPutOpenRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "courses/c1/cover", []byte("image-bytes"), "image/jpeg"))

	rc, err := s.Open(ctx, "courses/c1/cover")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))

	ok, err := s.Exists(ctx, "courses/c1/cover")
	require.NoError(t, err)
	assert.True(t, ok)

	// 同 key 覆盖写
	require.NoError(t, s.Put(ctx, "courses/c1/cover", []byte("v2"), "image/jpeg"))
	rc, err = s.Open(ctx, "courses/c1/cover")
	require.NoError(t, err)
	defer rc.Close()
	data, err = io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestResolveSessionURL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "users/u1/photo", []byte("x"), "image/png"))

	url, err := s.Resolve(ctx, "users/u1/photo")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, Scheme))

	// 同会话内同 key 复用同一 URL
	again, err := s.Resolve(ctx, "users/u1/photo")
	require.NoError(t, err)
	assert.Equal(t, url, again)

	// URL 可反查回 key
	key, ok := s.KeyForURL(url)
	require.True(t, ok)
	assert.Equal(t, "users/u1/photo", key)

	_, ok = s.KeyForURL("https://elsewhere.example/x")
	assert.False(t, ok)
}

func TestResolveMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Resolve(context.Background(), "missing/key")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", []byte("x"), ""))
	url, err := s.Resolve(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "k"))

	ok, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// 删除后会话 URL 失效
	_, ok = s.KeyForURL(url)
	assert.False(t, ok)

	// 删除不存在的 key 不报错
	require.NoError(t, s.Delete(ctx, "k"))
}
