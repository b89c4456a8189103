package files

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/TrueSelph/jvserve/internal/config"
	"github.com/TrueSelph/jvserve/internal/logger"
)

// presignedURLExpiry bounds the lifetime of links issued by URL.
const presignedURLExpiry = time.Hour

// objectAPI is the slice of the object-store client the S3 backend relies on.
// Narrowed so faults can be simulated in tests without a live bucket.
type objectAPI interface {
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	PutObject(ctx context.Context, bucket, key string, content []byte) error
	RemoveObject(ctx context.Context, bucket, key string) error
	PresignedGetURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// S3Store stores files in a remote S3-compatible bucket. Every backend fault
// is swallowed and logged so callers observe a uniform absence signal.
type S3Store struct {
	api    objectAPI
	bucket string
	root   string
}

// NewS3Store builds the remote backend from configuration. Missing
// credentials are tolerated at construction; operations will fail and report
// absence instead.
func NewS3Store(cfg config.S3Config, root string) (*S3Store, error) {
	endpoint := "s3.amazonaws.com"
	secure := true
	if strings.TrimSpace(cfg.EndpointURL) != "" {
		parsed, err := url.Parse(cfg.EndpointURL)
		if err == nil && parsed.Host != "" {
			endpoint = parsed.Host
			secure = parsed.Scheme != "http"
		}
	}

	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Region == "" {
		logger.Logger.Warn().Msg("missing S3 credentials - remote file operations may fail")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &S3Store{
		api:    &minioAPI{client: client},
		bucket: cfg.Bucket,
		root:   root,
	}, nil
}

func (s *S3Store) key(name string) string {
	return path.Join(s.root, name)
}

// Get returns the object's bytes; any backend fault reports absence.
func (s *S3Store) Get(name string) ([]byte, bool) {
	obj, err := s.api.GetObject(context.Background(), s.bucket, s.key(name))
	if err != nil {
		logger.Logger.Warn().Err(err).Str("file", name).Msg("failed to fetch object")
		return nil, false
	}
	defer obj.Close()

	content, err := io.ReadAll(obj)
	if err != nil {
		logger.Logger.Warn().Err(err).Str("file", name).Msg("failed to read object")
		return nil, false
	}
	return content, true
}

// Save uploads the object; failures report false.
func (s *S3Store) Save(name string, content []byte) bool {
	if err := s.api.PutObject(context.Background(), s.bucket, s.key(name), content); err != nil {
		logger.Logger.Error().Err(err).Str("file", name).Msg("failed to store object")
		return false
	}
	return true
}

// Delete removes the object; failures report false.
func (s *S3Store) Delete(name string) bool {
	if err := s.api.RemoveObject(context.Background(), s.bucket, s.key(name)); err != nil {
		logger.Logger.Warn().Err(err).Str("file", name).Msg("failed to delete object")
		return false
	}
	return true
}

// URL issues a time-bounded presigned link for the object.
func (s *S3Store) URL(name string) (string, bool) {
	link, err := s.api.PresignedGetURL(context.Background(), s.bucket, s.key(name), presignedURLExpiry)
	if err != nil {
		logger.Logger.Warn().Err(err).Str("file", name).Msg("failed to presign object url")
		return "", false
	}
	return link, true
}

// minioAPI adapts the minio client to objectAPI.
type minioAPI struct {
	client *minio.Client
}

func (m *minioAPI) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	return m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
}

func (m *minioAPI) PutObject(ctx context.Context, bucket, key string, content []byte) error {
	_, err := m.client.PutObject(ctx, bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{})
	return err
}

func (m *minioAPI) RemoveObject(ctx context.Context, bucket, key string) error {
	return m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
}

func (m *minioAPI) PresignedGetURL(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	link, err := m.client.PresignedGetObject(ctx, bucket, key, expiry, nil)
	if err != nil {
		return "", err
	}
	return link.String(), nil
}
