package ports

import (
	"context"
	"io"

	"github.com/Vovarama1992/flipbook/internal/conversion"
	"github.com/Vovarama1992/flipbook/internal/session"
)

// Upload: один файл из multipart-запроса
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Created: результат успешной загрузки
type Created struct {
	Ebook     *Ebook   `json:"ebook"`
	ShareURL  string   `json:"share_url"`
	PageURLs  []string `json:"page_urls,omitempty"`
	PageCount int      `json:"page_count"`
}

type Stats struct {
	TotalEbooks int64 `json:"total_ebooks"`
	TotalUsers  int64 `json:"total_users"`
}

type EbookService interface {
	// Create picks the flow from the files: one PDF or a set of images.
	Create(ctx context.Context, owner *session.Session, files []Upload) (*Created, error)
	CreateFromImages(ctx context.Context, owner *session.Session, files []Upload) (*Created, error)
	CreateFromPDF(ctx context.Context, owner *session.Session, file Upload) (*Created, error)
	Get(ctx context.Context, id string) (*Ebook, error)
	Count(ctx context.Context) (int64, error)
}

// PDFConverter: растеризация PDF целиком
type PDFConverter interface {
	Convert(ctx context.Context, pdf io.Reader) (conversion.Result, error)
}
