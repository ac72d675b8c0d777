package blob

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"docvault/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	content := "quarterly report"
	require.NoError(t, store.Put(ctx, "documents/abc", strings.NewReader(content), int64(len(content)), "text/plain"))

	rc, err := store.Get(ctx, "documents/abc")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	require.NoError(t, store.Delete(ctx, "documents/abc"))
	_, err = store.Get(ctx, "documents/abc")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing blob is not an error.
	assert.NoError(t, store.Delete(ctx, "documents/abc"))
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../etc/passwd", "/abs/path", "."} {
		err := store.Put(ctx, key, strings.NewReader("x"), 1, "text/plain")
		assert.Error(t, err, "key %q", key)
	}
}

func TestLocalStore_SignedURLUnsupported(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.SignedURL(context.Background(), "documents/abc", time.Minute)
	assert.ErrorIs(t, err, ErrSignedURLUnsupported)
}

func TestNew_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	store, err := New(ctx, config.BlobConfig{Backend: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	store, err = New(ctx, config.BlobConfig{Backend: "s3", S3Bucket: "docs", S3Region: "us-east-1", S3Endpoint: "http://localhost:9000", S3KeyID: "key", S3Secret: "secret"})
	require.NoError(t, err)
	assert.IsType(t, &S3Store{}, store)

	_, err = New(ctx, config.BlobConfig{Backend: "ftp"})
	assert.Error(t, err)
}

func TestS3Store_SignedURL(t *testing.T) {
	store := NewS3Store(config.BlobConfig{
		S3Bucket:   "docs",
		S3Region:   "us-east-1",
		S3Endpoint: "http://localhost:9000",
		S3KeyID:    "key",
		S3Secret:   "secret",
	})
	url, err := store.SignedURL(context.Background(), "documents/abc", 5*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "http://localhost:9000/docs/documents/abc")
	assert.Contains(t, url, "X-Amz-Expires=300")
	assert.Contains(t, url, "X-Amz-Credential=key%2F", "requests are signed with the configured key")
}
