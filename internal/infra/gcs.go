package infra

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/Vovarama1992/flipbook/internal/ports"
)

type gcsStore struct {
	client *storage.Client
	bucket *storage.BucketHandle
	host   string
}

// NewGCSStore uses application default credentials.
func NewGCSStore(ctx context.Context, bucket string) (ports.ArtifactStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}

	h := client.Bucket(bucket)
	if _, err := h.Attrs(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("bucket %q: %w", bucket, err)
	}

	return &gcsStore{
		client: client,
		bucket: h,
		host:   "https://storage.googleapis.com/" + bucket,
	}, nil
}

func (s *gcsStore) Upload(
	ctx context.Context,
	ownerID, filename string,
	r io.Reader,
	_ int64,
	contentType string,
) (string, error) {

	if ownerID == "" {
		return "", fmt.Errorf("ownerID required")
	}

	key := ObjectKey(ownerID, filename)
	w := s.bucket.Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return key, nil
}

func (s *gcsStore) PublicURL(locator string) string {
	return joinPublicURL(s.host, locator)
}

func (s *gcsStore) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	rc, err := s.bucket.Object(locator).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open GCS object: %w", err)
	}
	return rc, nil
}

func (s *gcsStore) Delete(ctx context.Context, locator string) error {
	err := s.bucket.Object(locator).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete GCS object: %w", err)
	}
	return nil
}
