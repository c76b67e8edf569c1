package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	cfg "github.com/rikshawmart/rikshawmart-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 answers the handful of path-style S3 calls the store makes
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	bucket := parts[0]
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	switch {
	case r.Method == http.MethodHead && key == "":
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && key == "":
		f.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[bucket+"/"+key] = body
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete:
		delete(f.objects, bucket+"/"+key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStore(t *testing.T, fake *fakeS3) *S3Store {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	store, err := NewS3Store(context.Background(), cfg.S3Config{
		Region:          "us-east-1",
		Bucket:          "receipts",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Endpoint:        server.URL,
	})
	require.NoError(t, err)
	return store
}

func TestNewS3Store_CreatesMissingBucket(t *testing.T) {
	fake := &fakeS3{buckets: map[string]bool{}, objects: map[string][]byte{}}

	newTestStore(t, fake)

	assert.True(t, fake.buckets["receipts"])
}

func TestS3Store_UploadAndDelete(t *testing.T) {
	fake := &fakeS3{buckets: map[string]bool{"receipts": true}, objects: map[string][]byte{}}
	store := newTestStore(t, fake)
	ctx := context.Background()

	path, err := store.Upload(ctx, "receipts/7/42.pdf", bytes.NewReader([]byte("%PDF-1.3")), "application/pdf", 8)
	require.NoError(t, err)
	assert.Equal(t, "receipts/7/42.pdf", path)
	assert.Contains(t, fake.objects, "receipts/receipts/7/42.pdf")

	require.NoError(t, store.Delete(ctx, path))
	assert.NotContains(t, fake.objects, "receipts/receipts/7/42.pdf")
}

func TestS3Store_GeneratePresignedURL(t *testing.T) {
	fake := &fakeS3{buckets: map[string]bool{"receipts": true}, objects: map[string][]byte{}}
	store := newTestStore(t, fake)

	url, err := store.GeneratePresignedURL(context.Background(), "receipts/7/42.pdf", 15*time.Minute)
	require.NoError(t, err)

	assert.Contains(t, url, "/receipts/receipts/7/42.pdf")
	assert.Contains(t, url, "X-Amz-Expires=900")
	assert.Contains(t, url, "X-Amz-Signature=")
}
