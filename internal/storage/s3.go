package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Options describes where media objects live and how they are addressed publicly.
type S3Options struct {
	Bucket    string
	KeyPrefix string
	Region    string
	// Endpoint is set for S3-compatible services; objects are then addressed path-style.
	Endpoint string
	// PublicBaseURL, when set, replaces the bucket URL in returned links (e.g. a CDN).
	PublicBaseURL string
}

// S3MediaStore stores post images in Amazon S3 (or compatible APIs).
type S3MediaStore struct {
	client   *s3.Client
	uploader *manager.Uploader
	opts     S3Options
	baseURL  string
	now      func() time.Time
}

func NewS3MediaStore(client *s3.Client, opts S3Options) (*S3MediaStore, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	opts.KeyPrefix = strings.Trim(opts.KeyPrefix, "/")
	return &S3MediaStore{
		client:   client,
		uploader: manager.NewUploader(client),
		opts:     opts,
		baseURL:  publicBaseURL(opts),
		now:      time.Now,
	}, nil
}

func publicBaseURL(opts S3Options) string {
	switch {
	case opts.PublicBaseURL != "":
		return strings.TrimRight(opts.PublicBaseURL, "/")
	case opts.Endpoint != "":
		return strings.TrimRight(opts.Endpoint, "/") + "/" + opts.Bucket
	default:
		region := opts.Region
		if region == "" {
			region = "us-east-1"
		}
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, region)
	}
}

func (s *S3MediaStore) UploadMedia(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open media %s: %w", localPath, err)
	}
	defer f.Close()

	contentType, err := detectContentType(f, localPath)
	if err != nil {
		return "", err
	}

	key := s.objectKey(localPath)
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.opts.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", localPath, err)
	}

	return s.baseURL + "/" + key, nil
}

func (s *S3MediaStore) DeleteMedia(ctx context.Context, publicURL string) error {
	key, ok := s.keyFromURL(publicURL)
	if !ok {
		return fmt.Errorf("%s: %w", publicURL, ErrForeignURL)
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// objectKey builds <prefix>/<yyyy>/<mm>/<dd>/<uuid><ext>.
func (s *S3MediaStore) objectKey(localPath string) string {
	d := s.now().UTC()
	name := uuid.NewString() + strings.ToLower(filepath.Ext(localPath))
	return path.Join(s.opts.KeyPrefix, fmt.Sprintf("%04d/%02d/%02d", d.Year(), d.Month(), d.Day()), name)
}

func (s *S3MediaStore) keyFromURL(publicURL string) (string, bool) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(publicURL, prefix)
	if key == "" {
		return "", false
	}
	if s.opts.KeyPrefix != "" && !strings.HasPrefix(key, s.opts.KeyPrefix+"/") {
		return "", false
	}
	return key, true
}

// detectContentType sniffs the first bytes of f and rewinds it.
func detectContentType(f *os.File, name string) (string, error) {
	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read media header: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind media: %w", err)
	}

	contentType := http.DetectContentType(head[:n])
	if contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
			contentType = byExt
		}
	}
	return contentType, nil
}

var _ MediaStore = (*S3MediaStore)(nil)
