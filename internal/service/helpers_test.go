package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"blog-api/internal/auth"
	"blog-api/internal/repository"
	"blog-api/internal/repository/sqlite"
	"blog-api/internal/service"
)

type testEnv struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	tokens   *auth.TokenManager
	accounts service.AccountService
	media    *fakeMedia
	reaper   *fakeReaper
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "blog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	users := sqlite.NewUserRepository(db)
	posts := sqlite.NewPostRepository(db)
	require.NoError(t, users.Init(ctx))
	require.NoError(t, posts.Init(ctx))

	tokens := auth.NewTokenManager("test-secret")
	return &testEnv{
		users:    users,
		posts:    posts,
		tokens:   tokens,
		accounts: service.NewAccountService(users, auth.NewBcryptHasher(bcrypt.MinCost), tokens, nil),
		media:    &fakeMedia{},
		reaper:   &fakeReaper{},
	}
}

// fakeMedia pretends to upload files and records what happened.
type fakeMedia struct {
	mu       sync.Mutex
	uploaded []string
	fail     bool
}

func (f *fakeMedia) UploadMedia(_ context.Context, localPath string) (string, error) {
	if f.fail {
		return "", errors.New("media host unavailable")
	}
	if _, err := os.Stat(localPath); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	url := fmt.Sprintf("https://cdn.example.com/posts/%d%s", len(f.uploaded)+1, filepath.Ext(localPath))
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeMedia) DeleteMedia(context.Context, string) error { return nil }

type fakeReaper struct {
	mu   sync.Mutex
	urls []string
}

func (f *fakeReaper) Enqueue(url string) {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.mu.Unlock()
}

func (f *fakeReaper) URLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

func tempImage(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "upload.png")
	require.NoError(t, os.WriteFile(p, []byte("\x89PNG\r\n\x1a\n"), 0o600))
	return p
}
