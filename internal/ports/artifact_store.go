package ports

import (
	"context"
	"io"
)

// ArtifactStore keeps uploaded blobs. A locator is the object key returned
// by Upload, e.g. "<ownerID>/<uuid>.pdf".
type ArtifactStore interface {
	// size = -1 when unknown
	Upload(ctx context.Context, ownerID, filename string, r io.Reader, size int64, contentType string) (locator string, err error)
	PublicURL(locator string) string
	Open(ctx context.Context, locator string) (io.ReadCloser, error)
	Delete(ctx context.Context, locator string) error
}
