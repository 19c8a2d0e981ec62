package viewer

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Vovarama1992/flipbook/internal/conversion"
	"github.com/Vovarama1992/flipbook/internal/ports"
)

const (
	pageCacheSize  = 256
	countCacheSize = 1024
)

type service struct {
	repo   ports.EbookRepo
	store  ports.ArtifactStore
	render PageRenderer

	counts *fifoCache[int]
	pages  *fifoCache[conversion.PageImage]
}

func NewService(repo ports.EbookRepo, store ports.ArtifactStore, render PageRenderer) Service {
	return &service{
		repo:   repo,
		store:  store,
		render: render,
		counts: newFIFOCache[int](countCacheSize),
		pages:  newFIFOCache[conversion.PageImage](pageCacheSize),
	}
}

// PagePath is the route serving page index of a PDF ebook.
func PagePath(id string, index int) string {
	return "/v/" + id + "/pages/" + strconv.Itoa(index)
}

func (s *service) Open(ctx context.Context, id string) (*Book, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	b := &Book{
		ID:          e.ID,
		Title:       e.Title,
		Type:        e.Type,
		Orientation: e.Orientation,
	}
	if b.Orientation == "" {
		b.Orientation = string(conversion.Portrait)
	}
	b.Width, b.Height = Dimensions(b.Orientation)

	if e.SourceLocator != "" {
		b.SourceURL = s.store.PublicURL(e.SourceLocator)
	}

	switch {
	case e.Type == ports.TypePDF:
		n, err := s.pageCount(ctx, e)
		if err != nil {
			return nil, err
		}
		b.Pages = make([]string, n)
		for i := range b.Pages {
			b.Pages[i] = PagePath(e.ID, i)
		}
	case len(e.PageLocators) > 0:
		b.Pages = make([]string, len(e.PageLocators))
		for i, loc := range e.PageLocators {
			b.Pages[i] = s.store.PublicURL(loc)
		}
	case b.SourceURL != "":
		b.Pages = []string{b.SourceURL}
	default:
		b.Pages = []string{}
	}

	return b, nil
}

func (s *service) RenderPage(ctx context.Context, id string, index int) (conversion.PageImage, error) {
	key := id + "/" + strconv.Itoa(index)
	if p, ok := s.pages.Get(key); ok {
		return p, nil
	}

	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return conversion.PageImage{}, err
	}
	if e.Type != ports.TypePDF {
		return conversion.PageImage{}, fmt.Errorf("ebook %s is not a pdf: %w", id, ports.ErrNotFound)
	}

	rc, err := s.store.Open(ctx, e.SourceLocator)
	if err != nil {
		return conversion.PageImage{}, fmt.Errorf("open source: %w", err)
	}
	defer rc.Close()

	p, err := s.render.RenderPage(ctx, rc, index)
	if err != nil {
		return conversion.PageImage{}, err
	}

	s.pages.Put(key, p)
	return p, nil
}

func (s *service) pageCount(ctx context.Context, e *ports.Ebook) (int, error) {
	if n, ok := s.counts.Get(e.ID); ok {
		return n, nil
	}

	rc, err := s.store.Open(ctx, e.SourceLocator)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer rc.Close()

	n, err := s.render.PageCount(ctx, rc)
	if err != nil {
		return 0, err
	}

	s.counts.Put(e.ID, n)
	return n, nil
}
