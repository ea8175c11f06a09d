package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"ignist/internal/config"
)

// Storage keeps publication attachments as objects.
type Storage interface {
	// Upload stores file and returns its object name, public URL and content type.
	Upload(ctx context.Context, publicationID, fileName string, file io.Reader, size int64) (objectName, url, contentType string, err error)
	Delete(ctx context.Context, objectName string) error
}

type MinIOClient struct {
	client    *minio.Client
	bucket    string
	publicURL string
	now       func() time.Time
}

func NewMinIOClient(ctx context.Context, cfg config.MinIO) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.BucketName, err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region})
		if err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.BucketName, err)
		}
	}

	return &MinIOClient{
		client:    client,
		bucket:    cfg.BucketName,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		now:       time.Now,
	}, nil
}

// ObjectName lays attachments out as publications/<id>/<yyyy>/<mm>/<uuid><ext>.
func ObjectName(publicationID, fileName string, now time.Time) string {
	return fmt.Sprintf("publications/%s/%d/%02d/%s%s",
		publicationID,
		now.Year(),
		now.Month(),
		uuid.New().String(),
		strings.ToLower(filepath.Ext(fileName)))
}

// ContentType guesses the MIME type from the file extension.
func ContentType(fileName string) string {
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName)))
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}

func (m *MinIOClient) Upload(ctx context.Context, publicationID, fileName string, file io.Reader, size int64) (string, string, string, error) {
	now := m.now().UTC()
	objectName := ObjectName(publicationID, fileName, now)
	contentType := ContentType(fileName)

	_, err := m.client.PutObject(ctx, m.bucket, objectName, file, size,
		minio.PutObjectOptions{
			ContentType: contentType,
			UserMetadata: map[string]string{
				"original-filename": fileName,
				"publication-id":    publicationID,
				"uploaded-at":       now.Format(time.RFC3339),
			},
		})
	if err != nil {
		return "", "", "", fmt.Errorf("upload to minio: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s", m.publicURL, m.bucket, objectName)
	return objectName, url, contentType, nil
}

func (m *MinIOClient) Delete(ctx context.Context, objectName string) error {
	err := m.client.RemoveObject(ctx, m.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("delete from minio: %w", err)
	}
	return nil
}
