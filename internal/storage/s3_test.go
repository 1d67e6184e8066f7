package storage_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-api/internal/storage"
)

type recordedRequest struct {
	Method      string
	Path        string
	ContentType string
	Body        []byte
}

// fakeS3 accepts PutObject and DeleteObject calls and records them.
type fakeS3 struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		Body:        body,
	})
	f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestStore(t *testing.T, opts storage.S3Options) (*storage.S3MediaStore, *fakeS3, string) {
	t.Helper()
	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("access", "secret", ""),
	})
	opts.Endpoint = srv.URL
	store, err := storage.NewS3MediaStore(client, opts)
	require.NoError(t, err)
	return store, fake, srv.URL
}

func writeTempImage(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestS3MediaStore_UploadMedia(t *testing.T) {
	store, fake, endpoint := newTestStore(t, storage.S3Options{Bucket: "media", KeyPrefix: "/posts/"})
	local := writeTempImage(t, "cover.PNG", pngHeader)

	url, err := store.UploadMedia(context.Background(), local)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, endpoint+"/media/posts/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	req := fake.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, strings.TrimPrefix(url, endpoint), req.Path)
	assert.Equal(t, "image/png", req.ContentType)

	// caller still owns the local file
	_, err = os.Stat(local)
	assert.NoError(t, err)
}

func TestS3MediaStore_UploadMedia_MissingFile(t *testing.T) {
	store, _, _ := newTestStore(t, storage.S3Options{Bucket: "media"})
	_, err := store.UploadMedia(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}

func TestS3MediaStore_DeleteMedia(t *testing.T) {
	store, fake, endpoint := newTestStore(t, storage.S3Options{Bucket: "media", KeyPrefix: "posts"})
	url, err := store.UploadMedia(context.Background(), writeTempImage(t, "a.gif", []byte("GIF89a....")))
	require.NoError(t, err)

	require.NoError(t, store.DeleteMedia(context.Background(), url))
	req := fake.last()
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, strings.TrimPrefix(url, endpoint), req.Path)

	t.Run("refuses foreign urls", func(t *testing.T) {
		for _, foreign := range []string{
			"https://elsewhere.example.com/posts/x.png",
			endpoint + "/media/other/x.png",
			endpoint + "/media/",
		} {
			err := store.DeleteMedia(context.Background(), foreign)
			assert.ErrorIs(t, err, storage.ErrForeignURL, foreign)
		}
	})
}

func TestNewS3MediaStore_PublicURLs(t *testing.T) {
	client := s3.New(s3.Options{Region: "eu-west-1"})

	_, err := storage.NewS3MediaStore(client, storage.S3Options{})
	assert.Error(t, err)

	cdn, err := storage.NewS3MediaStore(client, storage.S3Options{Bucket: "media", PublicBaseURL: "https://cdn.example.com/"})
	require.NoError(t, err)
	assert.ErrorIs(t, cdn.DeleteMedia(context.Background(), "https://media.s3.eu-west-1.amazonaws.com/x.png"), storage.ErrForeignURL)
}
