package http

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/samber/oops"

	"blog-api/internal/apperr"
	"blog-api/internal/auth"
	"blog-api/internal/domain"
)

const (
	uploadField = "fileupload"
	// room for the text fields that travel alongside the image
	formOverheadBytes = 1 << 20
)

type updatePostRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Content     *string `json:"content"`
}

func (h *Handler) listPosts(c *gin.Context) {
	posts, err := h.posts.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, listPostsResponse{
		Posts:       postsToResponse(posts),
		RandomPosts: postsToResponse(h.posts.Featured(posts)),
	})
}

func (h *Handler) getPost(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, postToResponse(*post))
}

func (h *Handler) profilePosts(c *gin.Context) {
	posts, err := h.posts.ListByOwner(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, postsToResponse(posts))
}

func (h *Handler) createPost(c *gin.Context) {
	identity := currentIdentity(c)

	imagePath, cleanup, err := h.receiveUpload(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer cleanup()

	input := domain.PostInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Content:     c.PostForm("content"),
	}
	post, err := h.posts.Create(c.Request.Context(), identity.UserID, input, imagePath)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := postToResponse(*post)
	c.JSON(http.StatusOK, postMessageResponse{Message: "Post successfully created", Post: &resp})
}

func (h *Handler) updatePost(c *gin.Context) {
	identity := currentIdentity(c)

	var (
		patch     domain.PostPatch
		imagePath string
	)
	if c.ContentType() == binding.MIMEJSON {
		var req updatePostRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeError(c, invalidInput(err))
			return
		}
		patch = domain.PostPatch{Title: req.Title, Description: req.Description, Content: req.Content}
	} else {
		path, cleanup, err := h.receiveUpload(c)
		if err != nil {
			h.writeError(c, err)
			return
		}
		defer cleanup()
		imagePath = path
		patch = domain.PostPatch{
			Title:       formValue(c, "title"),
			Description: formValue(c, "description"),
			Content:     formValue(c, "content"),
		}
	}

	post, err := h.posts.Update(c.Request.Context(), identity.UserID, c.Param("id"), patch, imagePath)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := postToResponse(*post)
	c.JSON(http.StatusOK, postMessageResponse{Message: "Post updated successfully", Post: &resp})
}

func (h *Handler) deletePost(c *gin.Context) {
	identity := currentIdentity(c)

	if err := h.posts.Delete(c.Request.Context(), identity.UserID, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, postMessageResponse{Message: "Post deleted successfully"})
}

// receiveUpload stores the optional image part in the upload directory. The
// returned cleanup removes the temp file whether or not it was consumed.
func (h *Handler) receiveUpload(c *gin.Context) (string, func(), error) {
	noop := func() {}
	if h.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes+formOverheadBytes)
	}

	file, err := c.FormFile(uploadField)
	if err != nil {
		switch {
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return "", noop, nil
		case isBodyTooLarge(err):
			return "", noop, h.imageTooLarge()
		default:
			return "", noop, invalidInput(err)
		}
	}
	if h.cfg.MaxUploadBytes > 0 && file.Size > h.cfg.MaxUploadBytes {
		return "", noop, h.imageTooLarge()
	}

	if err := os.MkdirAll(h.cfg.UploadDir, 0o755); err != nil {
		return "", noop, oops.Code(apperr.CodeInternal).With("operation", "create upload dir").Wrap(err)
	}
	dst := filepath.Join(h.cfg.UploadDir, uuid.NewString()+safeExt(file.Filename))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", noop, oops.Code(apperr.CodeInternal).With("operation", "save upload").Wrap(err)
	}

	cleanup := func() {
		if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
			h.logger.WithField("path", dst).Warnf("remove temp upload: %v", err)
		}
	}
	return dst, cleanup, nil
}

func (h *Handler) imageTooLarge() error {
	return oops.Code(apperr.CodeImageTooLarge).
		With(apperr.FieldKey, uploadField).
		Errorf("image exceeds %d bytes", h.cfg.MaxUploadBytes)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

// safeExt keeps a short alphanumeric extension from a client supplied name.
func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

func formValue(c *gin.Context, name string) *string {
	if v, ok := c.GetPostForm(name); ok {
		return &v
	}
	return nil
}

func currentIdentity(c *gin.Context) auth.Identity {
	identity, _ := auth.IdentityFromContext(c.Request.Context())
	return identity
}
