package domain

import "time"

// Post is a blog entry owned by exactly one User. OwnerID is fixed at creation.
type Post struct {
	ID             string
	OwnerID        string
	AuthorUsername string
	Title          string
	Description    string
	Content        string
	ImageURL       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title       string
	Description string
	Content     string
}

// PostPatch carries the fields supplied in an update. Nil fields are left as they are.
type PostPatch struct {
	Title       *string
	Description *string
	Content     *string
}
