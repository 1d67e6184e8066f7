package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"

	"blog-api/internal/apperr"
	"blog-api/internal/auth"
	"blog-api/internal/domain"
	"blog-api/internal/repository"
	"blog-api/internal/storage"
)

// MediaReaper accepts media URLs that are no longer referenced by any post.
type MediaReaper interface {
	Enqueue(publicURL string)
}

// PostService coordinates post operations backed by the repository and media store.
type PostService interface {
	Create(ctx context.Context, ownerID string, input domain.PostInput, imagePath string) (*domain.Post, error)
	Get(ctx context.Context, id string) (*domain.Post, error)
	List(ctx context.Context) ([]domain.Post, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Post, error)
	Featured(posts []domain.Post) []domain.Post
	Update(ctx context.Context, actingID, id string, patch domain.PostPatch, imagePath string) (*domain.Post, error)
	Delete(ctx context.Context, actingID, id string) error
}

type PostServiceConfig struct {
	FeaturedCount int
	// Reaper receives replaced and deleted images. Nil leaves them in storage.
	Reaper  MediaReaper
	NewRand func() *rand.Rand
	Logger  logrus.FieldLogger
}

type postService struct {
	posts  repository.PostRepository
	media  storage.MediaStore
	cfg    PostServiceConfig
	logger logrus.FieldLogger
}

func NewPostService(posts repository.PostRepository, media storage.MediaStore, cfg PostServiceConfig) PostService {
	if cfg.NewRand == nil {
		cfg.NewRand = func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &postService{
		posts:  posts,
		media:  media,
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

func (s *postService) Create(ctx context.Context, ownerID string, input domain.PostInput, imagePath string) (*domain.Post, error) {
	if ownerID == "" {
		return nil, oops.Code(apperr.CodeTokenMissing).Errorf("authentication required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, oops.Code(apperr.CodeInvalidInput).
			With(apperr.FieldKey, "title").
			Errorf("title is required")
	}

	imageURL, err := s.upload(ctx, imagePath)
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		OwnerID:     ownerID,
		Title:       title,
		Description: input.Description,
		Content:     input.Content,
		ImageURL:    imageURL,
	}
	if _, err := s.posts.Create(ctx, post); err != nil {
		s.reap(imageURL)
		return nil, oops.Code(apperr.CodeInternal).With("operation", "create post").Wrap(err)
	}

	// re-read for the author username
	return s.Get(ctx, post.ID)
}

func (s *postService) Get(ctx context.Context, id string) (*domain.Post, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, translatePostErr(err, id, "get post")
	}
	return post, nil
}

func (s *postService) List(ctx context.Context) ([]domain.Post, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, oops.Code(apperr.CodeInternal).With("operation", "list posts").Wrap(err)
	}
	return posts, nil
}

func (s *postService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Post, error) {
	posts, err := s.posts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, oops.Code(apperr.CodeInternal).
			With("operation", "list posts by owner").
			With("owner_id", ownerID).
			Wrap(err)
	}
	return posts, nil
}

func (s *postService) Featured(posts []domain.Post) []domain.Post {
	return Sample(posts, s.cfg.FeaturedCount, s.cfg.NewRand())
}

func (s *postService) Update(ctx context.Context, actingID, id string, patch domain.PostPatch, imagePath string) (*domain.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireOwner(actingID, post.OwnerID); err != nil {
		return nil, oops.With("post_id", id).Wrap(err)
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, oops.Code(apperr.CodeInvalidInput).
				With(apperr.FieldKey, "title").
				Errorf("title cannot be empty")
		}
		post.Title = title
	}
	if patch.Description != nil {
		post.Description = *patch.Description
	}
	if patch.Content != nil {
		post.Content = *patch.Content
	}

	imageURL, err := s.upload(ctx, imagePath)
	if err != nil {
		return nil, err
	}
	previousImage := post.ImageURL
	if imageURL != "" {
		post.ImageURL = imageURL
	}

	if err := s.posts.Update(ctx, post); err != nil {
		s.reap(imageURL)
		return nil, translatePostErr(err, id, "update post")
	}
	if imageURL != "" && previousImage != "" && previousImage != imageURL {
		s.reap(previousImage)
	}
	return post, nil
}

func (s *postService) Delete(ctx context.Context, actingID, id string) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.RequireOwner(actingID, post.OwnerID); err != nil {
		return oops.With("post_id", id).Wrap(err)
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return translatePostErr(err, id, "delete post")
	}
	s.reap(post.ImageURL)
	return nil
}

// upload sends imagePath to media storage and removes the local file once it
// has been stored. An empty path means no image was supplied.
func (s *postService) upload(ctx context.Context, imagePath string) (string, error) {
	if imagePath == "" {
		return "", nil
	}
	url, err := s.media.UploadMedia(ctx, imagePath)
	if err != nil {
		return "", oops.Code(apperr.CodeMediaUploadFailed).Wrap(err)
	}
	if err := os.Remove(imagePath); err != nil && !os.IsNotExist(err) {
		s.logger.WithField("path", imagePath).Warnf("remove uploaded temp file: %v", err)
	}
	return url, nil
}

func (s *postService) reap(url string) {
	if url == "" || s.cfg.Reaper == nil {
		return
	}
	s.cfg.Reaper.Enqueue(url)
}

func translatePostErr(err error, id, operation string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return oops.Code(apperr.CodePostNotFound).With("post_id", id).Errorf("post not found")
	}
	return oops.Code(apperr.CodeInternal).With("operation", operation).With("post_id", id).Wrap(err)
}
