package storage

import (
	"context"
	"errors"
)

// ErrForeignURL is returned when asked to delete media this store did not produce.
var ErrForeignURL = errors.New("media url does not belong to this store")

// MediaStore persists uploaded post images and hands back public URLs.
type MediaStore interface {
	// UploadMedia stores the file at localPath and returns its public URL.
	// The caller owns localPath and removes it afterwards.
	UploadMedia(ctx context.Context, localPath string) (string, error)
	// DeleteMedia removes an object previously returned by UploadMedia.
	DeleteMedia(ctx context.Context, publicURL string) error
}
