package pdf

import (
	"context"

	"github.com/Vovarama1992/flipbook/internal/conversion"
)

const (
	DefaultRenderWidth = 800
	MimeJPEG           = "image/jpeg"
)

// Rasterizer turns pages of a PDF file on disk into raster images.
// Page indexes are 0-based.
type Rasterizer interface {
	PageCount(ctx context.Context, path string) (int, error)
	RenderPage(ctx context.Context, path string, index, width int) (conversion.PageImage, error)
}
