package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuvatw/nuva-club/core"
)

func TestLocal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocal(core.MediaConfig{LocalDir: dir, BaseURL: "http://localhost:8000/media/"})
	require.NoError(t, err)

	url, err := store.Put(ctx, "avatars/u1/me.png", strings.NewReader("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/media/avatars/u1/me.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "avatars", "u1", "me.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	require.NoError(t, store.Delete(ctx, "avatars/u1/me.png"))
	_, err = os.Stat(filepath.Join(dir, "avatars", "u1", "me.png"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, store.Delete(ctx, "avatars/u1/me.png"))
}

func TestLocalRejectsBadKeys(t *testing.T) {
	store, err := NewLocal(core.MediaConfig{LocalDir: t.TempDir()})
	require.NoError(t, err)

	for _, key := range []string{"", "/", "../escape.txt", "a/../../b"} {
		_, err := store.Put(context.Background(), key, strings.NewReader("x"), "text/plain")
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}
