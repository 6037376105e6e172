package storage

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func TestLocalStoragePutGetRoundTrip(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	key := "projects/abc/mockups/home.png"
	err := s.Put(ctx, key, strings.NewReader("image-bytes"), PutOptions{ContentType: "image/png"})
	require.NoError(t, err)

	rc, info, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))
	assert.Equal(t, int64(len("image-bytes")), info.Size)
	assert.Equal(t, "image/png", info.ContentType)
}

func TestLocalStoragePutRejectsExistingKey(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a.png", strings.NewReader("one"), PutOptions{}))

	err := s.Put(ctx, "a.png", strings.NewReader("two"), PutOptions{})
	assert.ErrorIs(t, err, ErrKeyExists)

	err = s.Put(ctx, "a.png", strings.NewReader("two"), PutOptions{Overwrite: true})
	assert.NoError(t, err)
}

func TestLocalStoragePutEnforcesMaxSize(t *testing.T) {
	s := newTestLocalStorage(t)

	err := s.Put(context.Background(), "big.png", strings.NewReader("0123456789"), PutOptions{MaxSize: 4})
	assert.ErrorIs(t, err, ErrTooLarge)

	exists, err := s.Exists(context.Background(), "big.png")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorageGetMissingKey(t *testing.T) {
	s := newTestLocalStorage(t)

	_, _, err := s.Get(context.Background(), "absent.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	s := newTestLocalStorage(t)

	err := s.Put(context.Background(), "../escape.png", strings.NewReader("x"), PutOptions{})
	assert.ErrorIs(t, err, ErrInvalidKey)

	err = s.Put(context.Background(), "", strings.NewReader("x"), PutOptions{})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestLocalStorageDeleteIsIdempotent(t *testing.T) {
	s := newTestLocalStorage(t)

	assert.NoError(t, s.Delete(context.Background(), "never-existed.png"))
}

func TestLocalStorageURL(t *testing.T) {
	s := newTestLocalStorage(t)

	url, err := s.URL(context.Background(), "projects/x/mockups/a.png", 0)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/projects/x/mockups/a.png", url)
}

func TestMockupKeyShape(t *testing.T) {
	projectID := uuid.New()

	key := MockupKey(projectID, "accueil.png")
	assert.True(t, strings.HasPrefix(key, "projects/"+projectID.String()+"/mockups/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	thumb := ThumbnailKey(projectID, key)
	assert.True(t, strings.HasPrefix(thumb, "projects/"+projectID.String()+"/thumbnails/"))
}

func TestIsAllowedMockupType(t *testing.T) {
	assert.True(t, IsAllowedMockupType("image/png"))
	assert.True(t, IsAllowedMockupType("image/jpeg; charset=binary"))
	assert.True(t, IsAllowedMockupType("IMAGE/WEBP"))
	assert.False(t, IsAllowedMockupType("image/heic"))
	assert.False(t, IsAllowedMockupType("application/pdf"))
}
