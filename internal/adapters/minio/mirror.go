package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"lexshelf/internal/ports"
)

// Config configures the object-store mirror
type Config struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

// objectAPI is the part of *minio.Client the mirror uses
type objectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64,
		opts minio.PutObjectOptions) (minio.UploadInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
}

// MirrorSink implements ports.MirrorSink by uploading each document as an
// object keyed by its repository path
type MirrorSink struct {
	api    objectAPI
	bucket string
	prefix string
	region string
}

// Ensure MirrorSink implements MirrorSink
var _ ports.MirrorSink = (*MirrorSink)(nil)

// New creates a mirror for the configured bucket
func New(cfg Config) (*MirrorSink, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio mirror needs endpoint and bucket")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}
	return newWithAPI(client, cfg), nil
}

func newWithAPI(api objectAPI, cfg Config) *MirrorSink {
	return &MirrorSink{
		api:    api,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		region: cfg.Region,
	}
}

// Name identifies the sink in logs
func (m *MirrorSink) Name() string {
	return "minio:" + m.bucket
}

// EnsureBucket creates the bucket when it does not exist yet
func (m *MirrorSink) EnsureBucket(ctx context.Context) error {
	exists, err := m.api.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.api.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", m.bucket, err)
	}
	return nil
}

// ObjectKey returns the object name of a stored document
func (m *MirrorSink) ObjectKey(rec ports.MirrorRecord) string {
	rel := rec.RelPath
	if rel == "" {
		rel = rec.ID + ".json"
	}
	if m.prefix == "" {
		return rel
	}
	return path.Join(m.prefix, rel)
}

// Insert uploads the payload
func (m *MirrorSink) Insert(ctx context.Context, rec ports.MirrorRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("mirror record without id")
	}
	_, err := m.api.PutObject(ctx, m.bucket, m.ObjectKey(rec), bytes.NewReader(rec.Payload), int64(len(rec.Payload)),
		minio.PutObjectOptions{
			ContentType: "application/json",
			UserMetadata: map[string]string{
				"document-id": rec.ID,
				"created-at":  rec.CreatedAt.UTC().Format(time.RFC3339),
			},
		})
	if err != nil {
		return fmt.Errorf("upload %s: %w", rec.ID, err)
	}
	return nil
}

// Close is a no-op; the client holds no open connections between calls
func (m *MirrorSink) Close() error {
	return nil
}
