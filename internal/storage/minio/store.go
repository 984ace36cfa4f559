// Package minio stores item photos in an S3-compatible object store and
// serves them through public URLs.
package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/civic-cloud/lostfound/internal/domain"
)

// Config holds connection parameters for the image store.
type Config struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
}

// Store uploads item images and returns their public URLs.
type Store struct {
	client         *minio.Client
	bucket         string
	publicEndpoint string
	log            *zap.Logger

	now   func() time.Time
	newID func() string
}

// New creates an image store client. The bucket is not touched here; call
// EnsureBucket during startup.
func New(cfg Config, log *zap.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create image store client: %w", err)
	}

	publicEndpoint := strings.TrimSuffix(strings.TrimSpace(cfg.PublicEndpoint), "/")
	if publicEndpoint == "" {
		publicEndpoint = cfg.Endpoint
	}

	return &Store{
		client:         client,
		bucket:         cfg.Bucket,
		publicEndpoint: publicEndpoint,
		log:            log,
		now:            time.Now,
		newID:          func() string { return uuid.NewString() },
	}, nil
}

// EnsureBucket creates the bucket with a public-read policy if it is missing.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w: %w", s.bucket, domain.ErrImageStoreUnavailable, err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w: %w", s.bucket, domain.ErrImageStoreUnavailable, err)
	}

	policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Action":["s3:GetObject"],"Effect":"Allow","Principal":{"AWS":["*"]},"Resource":["arn:aws:s3:::%s/*"]}]}`, s.bucket)
	if err := s.client.SetBucketPolicy(ctx, s.bucket, policy); err != nil {
		s.log.Warn("failed to set public-read bucket policy",
			zap.String("bucket", s.bucket), zap.Error(err))
	}

	s.log.Info("image bucket created", zap.String("bucket", s.bucket))
	return nil
}

// Upload stores an image under a generated object name and returns its public
// URL. The original filename contributes only its extension.
func (s *Store) Upload(
	ctx context.Context, reader io.Reader, filename, contentType string, size int64,
) (string, error) {
	objectName := s.objectName(filename)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w: %w", objectName, domain.ErrImageStoreUnavailable, err)
	}

	publicURL := s.publicURL(objectName)
	s.log.Info("image uploaded",
		zap.String("object", objectName),
		zap.String("url", publicURL),
		zap.Int64("size", size))

	return publicURL, nil
}

// Delete removes an image by its public URL.
func (s *Store) Delete(ctx context.Context, imageURL string) error {
	objectName := s.objectFromURL(imageURL)
	if objectName == "" {
		return fmt.Errorf("no object key in url %q: %w", imageURL, domain.ErrValidation)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w: %w", objectName, domain.ErrImageStoreUnavailable, err)
	}
	return nil
}

// HealthCheck verifies the bucket is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("image store: %w: %w", domain.ErrImageStoreUnavailable, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist: %w", s.bucket, domain.ErrImageStoreUnavailable)
	}
	return nil
}

// objectName generates a date-partitioned unique object name keeping the
// original extension.
func (s *Store) objectName(filename string) string {
	ext := path.Ext(filename)
	return fmt.Sprintf("uploads/%s/%s%s", s.now().UTC().Format("2006-01-02"), s.newID(), ext)
}

func (s *Store) publicURL(objectName string) string {
	if strings.Contains(s.publicEndpoint, "://") {
		return fmt.Sprintf("%s/%s/%s", s.publicEndpoint, s.bucket, objectName)
	}
	return fmt.Sprintf("https://%s/%s/%s", s.publicEndpoint, s.bucket, objectName)
}

// objectFromURL extracts the object key from a public URL.
func (s *Store) objectFromURL(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return ""
	}

	p := strings.TrimPrefix(u.Path, "/")
	prefix := s.bucket + "/"
	if idx := strings.LastIndex(p, prefix); idx != -1 {
		return p[idx+len(prefix):]
	}
	return p
}
