package ports

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUnsupportedInput = errors.New("upload one PDF or one or more images (JPG/PNG)")
	ErrTooLarge         = errors.New("file too large")
	ErrUploadFailed     = errors.New("upload failed")
)

const (
	TypePDF    = "pdf"
	TypeImages = "images"
)

// Ebook: запись о загруженной книге, создаётся один раз
type Ebook struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	OwnerID       string    `json:"owner_id"`
	Type          string    `json:"type"`
	SourceLocator string    `json:"file_path"`
	PageLocators  []string  `json:"pages"`
	Orientation   string    `json:"orientation"`
	IsPublic      bool      `json:"is_public"`
	CreatedAt     time.Time `json:"created_at"`
}

// EbookRepo: хранилище метаданных
type EbookRepo interface {
	// Insert assigns ID and CreatedAt when they are empty.
	Insert(ctx context.Context, e *Ebook) (*Ebook, error)
	GetByID(ctx context.Context, id string) (*Ebook, error)
	Count(ctx context.Context) (int64, error)
}
