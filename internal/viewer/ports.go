package viewer

import (
	"context"
	"io"

	"github.com/Vovarama1992/flipbook/internal/conversion"
)

// Book is everything a flipbook client needs to render one ebook.
type Book struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Orientation string   `json:"orientation"`
	Pages       []string `json:"pages"`
	SourceURL   string   `json:"source_url,omitempty"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
}

func (b *Book) PageCount() int { return len(b.Pages) }

// PageRenderer rasterizes PDFs on demand.
type PageRenderer interface {
	PageCount(ctx context.Context, pdf io.Reader) (int, error)
	RenderPage(ctx context.Context, pdf io.Reader, index int) (conversion.PageImage, error)
}

type Service interface {
	Open(ctx context.Context, id string) (*Book, error)
	// RenderPage returns one page of a PDF ebook as an image.
	RenderPage(ctx context.Context, id string, index int) (conversion.PageImage, error)
}
