package infra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Vovarama1992/flipbook/internal/config"
	"github.com/Vovarama1992/flipbook/internal/ports"
)

type s3Store struct {
	client *minio.Client
	bucket string
	host   string
}

func NewS3Store(ctx context.Context, cfg config.S3) (ports.ArtifactStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init S3 client: %w", err)
	}

	// проверим, что бакет существует
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", cfg.Bucket)
	}

	host := cfg.PublicBaseURL
	if host == "" {
		scheme := "https"
		if !cfg.Secure {
			scheme = "http"
		}
		host = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &s3Store{
		client: client,
		bucket: cfg.Bucket,
		host:   host,
	}, nil
}

// ObjectKey: путь в бакете: <owner>/<uuid><ext>
func ObjectKey(ownerID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	return path.Join(ownerID, uuid.NewString()+ext)
}

// Upload загружает файл и возвращает локатор (ключ объекта)
func (s *s3Store) Upload(
	ctx context.Context,
	ownerID, filename string,
	r io.Reader,
	size int64,
	contentType string,
) (string, error) {

	if ownerID == "" {
		return "", fmt.Errorf("ownerID required")
	}

	// size = -1 → читаем в память, чтобы знать размер
	if size < 0 {
		buf := new(bytes.Buffer)
		if _, err := io.Copy(buf, r); err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		r, size = buf, int64(buf.Len())
	}

	key := ObjectKey(ownerID, filename)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"uploaded-at": time.Now().Format(time.RFC3339)},
	})
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}

	return key, nil
}

func (s *s3Store) PublicURL(locator string) string {
	return joinPublicURL(s.host, locator)
}

func (s *s3Store) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, locator, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	// GetObject ленивый, ошибки видны только после Stat/Read
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}
	return obj, nil
}

func (s *s3Store) Delete(ctx context.Context, locator string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, locator, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

func joinPublicURL(base, key string) string {
	parts := strings.Split(filepath.ToSlash(key), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return base + "/" + strings.Join(parts, "/")
}
