package http

import (
	"time"

	"blog-api/internal/domain"
)

type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	CreatedAt string `json:"createdAt"`
}

type signupResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	ID      string `json:"id"`
}

type AuthorResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type PostResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Content     string         `json:"content"`
	ImageURL    string         `json:"imageUrl,omitempty"`
	Author      AuthorResponse `json:"author"`
	CreatedAt   string         `json:"createdAt"`
	UpdatedAt   string         `json:"updatedAt"`
}

type listPostsResponse struct {
	Posts       []PostResponse `json:"posts"`
	RandomPosts []PostResponse `json:"randomPosts"`
}

type postMessageResponse struct {
	Message string        `json:"message"`
	Post    *PostResponse `json:"post,omitempty"`
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func postToResponse(post domain.Post) PostResponse {
	return PostResponse{
		ID:          post.ID,
		Title:       post.Title,
		Description: post.Description,
		Content:     post.Content,
		ImageURL:    post.ImageURL,
		Author: AuthorResponse{
			ID:       post.OwnerID,
			Username: post.AuthorUsername,
		},
		CreatedAt: post.CreatedAt.Format(time.RFC3339),
		UpdatedAt: post.UpdatedAt.Format(time.RFC3339),
	}
}

func postsToResponse(posts []domain.Post) []PostResponse {
	resp := make([]PostResponse, len(posts))
	for i := range posts {
		resp[i] = postToResponse(posts[i])
	}
	return resp
}
