package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-api/internal/domain"
	"blog-api/internal/repository"
	"blog-api/internal/repository/sqlite"
)

// testDB opens a temp-file database with both tables created.
func testDB(t *testing.T) (repository.UserRepository, repository.PostRepository, *sql.DB) {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "nested", "blog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	users := sqlite.NewUserRepository(db)
	posts := sqlite.NewPostRepository(db)
	require.NoError(t, users.Init(ctx))
	require.NoError(t, posts.Init(ctx))
	return users, posts, db
}

func createUser(t *testing.T, users repository.UserRepository, username string) *domain.User {
	t.Helper()
	user := &domain.User{Username: username, PasswordHash: "$2a$10$hash"}
	_, err := users.Create(context.Background(), user)
	require.NoError(t, err)
	return user
}

func TestUserRepository(t *testing.T) {
	users, _, _ := testDB(t)
	ctx := context.Background()

	user := createUser(t, users, "alice1")
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	t.Run("get by username", func(t *testing.T) {
		got, err := users.GetByUsername(ctx, "alice1")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "$2a$10$hash", got.PasswordHash)
	})

	t.Run("get by id", func(t *testing.T) {
		got, err := users.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice1", got.Username)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := users.GetByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("duplicate username is a conflict", func(t *testing.T) {
		_, err := users.Create(ctx, &domain.User{Username: "alice1", PasswordHash: "x"})
		assert.ErrorIs(t, err, repository.ErrConflict)
	})
}

func TestPostRepository_CRUD(t *testing.T) {
	users, posts, _ := testDB(t)
	ctx := context.Background()
	owner := createUser(t, users, "alice1")

	post := &domain.Post{
		OwnerID:     owner.ID,
		Title:       "First",
		Description: "intro",
		Content:     "hello",
		ImageURL:    "https://cdn.example.com/a.png",
	}
	id, err := posts.Create(ctx, post)
	require.NoError(t, err)
	assert.Equal(t, post.ID, id)

	got, err := posts.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice1", got.AuthorUsername)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.Equal(t, "intro", got.Description)
	assert.Equal(t, "https://cdn.example.com/a.png", got.ImageURL)

	got.Title = "Edited"
	got.ImageURL = ""
	require.NoError(t, posts.Update(ctx, got))

	updated, err := posts.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Title)
	assert.Empty(t, updated.ImageURL)
	assert.WithinDuration(t, post.CreatedAt, updated.CreatedAt, time.Second)

	require.NoError(t, posts.Delete(ctx, id))
	_, err = posts.Get(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, posts.Delete(ctx, id), repository.ErrNotFound)
	assert.ErrorIs(t, posts.Update(ctx, got), repository.ErrNotFound)
}

func TestPostRepository_Lists(t *testing.T) {
	users, posts, _ := testDB(t)
	ctx := context.Background()
	alice := createUser(t, users, "alice1")
	bob := createUser(t, users, "bobby")

	for _, p := range []*domain.Post{
		{OwnerID: alice.ID, Title: "a1"},
		{OwnerID: bob.ID, Title: "b1"},
		{OwnerID: alice.ID, Title: "a2"},
	} {
		_, err := posts.Create(ctx, p)
		require.NoError(t, err)
	}

	all, err := posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a2", all[0].Title)

	mine, err := posts.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, p := range mine {
		assert.Equal(t, alice.ID, p.OwnerID)
		assert.Equal(t, "alice1", p.AuthorUsername)
	}

	none, err := posts.ListByOwner(ctx, "unknown")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestPostRepository_RequiresExistingOwner(t *testing.T) {
	_, posts, _ := testDB(t)

	_, err := posts.Create(context.Background(), &domain.Post{OwnerID: "missing", Title: "orphan"})
	assert.Error(t, err)
}

func TestPostRepository_InitUpgradesLegacyTable(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "legacy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	users := sqlite.NewUserRepository(db)
	require.NoError(t, users.Init(ctx))
	_, err = db.ExecContext(ctx, `
CREATE TABLE posts (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	title TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
)`)
	require.NoError(t, err)

	posts := sqlite.NewPostRepository(db)
	require.NoError(t, posts.Init(ctx))
	require.NoError(t, posts.Init(ctx))

	owner := createUser(t, users, "legacy")
	_, err = posts.Create(ctx, &domain.Post{OwnerID: owner.ID, Title: "t", Description: "d", ImageURL: "u"})
	require.NoError(t, err)
}
