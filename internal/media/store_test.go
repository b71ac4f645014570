package media

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*LocalStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/media/", zerolog.Nop())
	require.NoError(t, err)
	return store, dir
}

func TestStore_PassesThroughReferences(t *testing.T) {
	store, _ := newTestStore(t)

	ref, err := store.Store(context.Background(), "https://cdn.example.com/pic.png")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/pic.png", ref)
}

func TestStore_DecodesDataURL(t *testing.T) {
	store, dir := newTestStore(t)

	// Minimal PNG signature so type detection picks the right extension.
	payload := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 16)...)
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

	ref, err := store.Store(context.Background(), dataURL)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ref, "/media/"))
	require.True(t, strings.HasSuffix(ref, ".png"))

	written, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(ref, "/media/")))
	require.NoError(t, err)
	require.Equal(t, payload, written)
}

func TestStore_MalformedPayload(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Store(context.Background(), "data:image/png;base64")
	require.ErrorIs(t, err, errMalformedPayload)

	_, err = store.Store(context.Background(), "data:image/png;base64,%%%not-base64%%%")
	require.ErrorIs(t, err, errMalformedPayload)
}
