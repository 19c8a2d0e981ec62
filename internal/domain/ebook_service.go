package domain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/dustin/go-humanize"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/Vovarama1992/flipbook/internal/conversion"
	"github.com/Vovarama1992/flipbook/internal/error_notificator"
	"github.com/Vovarama1992/flipbook/internal/ports"
	"github.com/Vovarama1992/flipbook/internal/session"
)

const (
	UntitledTitle = "Untitled Ebook"
	mimePDF       = "application/pdf"
)

type ebookService struct {
	store    ports.ArtifactStore
	repo     ports.EbookRepo
	pdf      ports.PDFConverter
	notifier error_notificator.Notificator
	log      *logger.ZapLogger
	parallel int
}

func NewEbookService(
	store ports.ArtifactStore,
	repo ports.EbookRepo,
	pdf ports.PDFConverter,
	n error_notificator.Notificator,
	log *logger.ZapLogger,
	uploadParallel int,
) ports.EbookService {
	if uploadParallel <= 0 {
		uploadParallel = 4
	}
	return &ebookService{
		store:    store,
		repo:     repo,
		pdf:      pdf,
		notifier: n,
		log:      log,
		parallel: uploadParallel,
	}
}

func (s *ebookService) Create(ctx context.Context, owner *session.Session, files []ports.Upload) (*ports.Created, error) {
	kind, err := Classify(files)
	if err != nil {
		return nil, err
	}
	if kind == ports.TypePDF {
		return s.CreateFromPDF(ctx, owner, files[0])
	}
	return s.CreateFromImages(ctx, owner, files)
}

// CreateFromImages uploads every image and then creates one record. If any
// upload fails nothing is persisted and the blobs already stored are removed.
func (s *ebookService) CreateFromImages(ctx context.Context, owner *session.Session, files []ports.Upload) (*ports.Created, error) {
	if owner == nil {
		return nil, session.ErrUnauthorized
	}
	if len(files) == 0 {
		return nil, ports.ErrUnsupportedInput
	}

	locators, err := s.uploadAll(ctx, owner.UserID, files)
	if err != nil {
		s.notifier.Notify(ctx, err, fmt.Sprintf("image batch upload: user=%s files=%d", owner.UserID, len(files)))
		return nil, err
	}

	rec, err := s.repo.Insert(ctx, &ports.Ebook{
		Title:        TitleFrom(files[0].Filename),
		OwnerID:      owner.UserID,
		Type:         ports.TypeImages,
		PageLocators: locators,
		Orientation:  string(imageOrientation(files[0].Data)),
		IsPublic:     true,
	})
	if err != nil {
		s.discard(ctx, locators)
		s.notifier.Notify(ctx, err, fmt.Sprintf("insert ebook: user=%s", owner.UserID))
		return nil, fmt.Errorf("save ebook: %w", err)
	}

	urls := make([]string, len(locators))
	for i, loc := range locators {
		urls[i] = s.store.PublicURL(loc)
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: fmt.Sprintf("ebook %s created from %d images (%s)", rec.ID, len(files), humanize.Bytes(totalSize(files))),
		Service: "flipbook",
	})

	return &ports.Created{Ebook: rec, PageURLs: urls, PageCount: len(urls)}, nil
}

// CreateFromPDF rasterizes the PDF to learn its orientation, then stores the
// original file and creates the record.
func (s *ebookService) CreateFromPDF(ctx context.Context, owner *session.Session, file ports.Upload) (*ports.Created, error) {
	if owner == nil {
		return nil, session.ErrUnauthorized
	}

	res, err := s.pdf.Convert(ctx, bytes.NewReader(file.Data))
	if err != nil {
		if !errors.Is(err, conversion.ErrDocumentLoad) {
			s.notifier.Notify(ctx, err, fmt.Sprintf("pdf conversion: user=%s file=%s", owner.UserID, file.Filename))
		}
		return nil, err
	}

	loc, err := s.store.Upload(ctx, owner.UserID, file.Filename, bytes.NewReader(file.Data), int64(len(file.Data)), mimePDF)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ports.ErrUploadFailed, file.Filename, err)
		s.notifier.Notify(ctx, err, fmt.Sprintf("pdf upload: user=%s", owner.UserID))
		return nil, err
	}

	rec, err := s.repo.Insert(ctx, &ports.Ebook{
		Title:         TitleFrom(file.Filename),
		OwnerID:       owner.UserID,
		Type:          ports.TypePDF,
		SourceLocator: loc,
		PageLocators:  []string{},
		Orientation:   string(res.Orientation),
		IsPublic:      true,
	})
	if err != nil {
		s.discard(ctx, []string{loc})
		s.notifier.Notify(ctx, err, fmt.Sprintf("insert ebook: user=%s", owner.UserID))
		return nil, fmt.Errorf("save ebook: %w", err)
	}

	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: fmt.Sprintf("ebook %s created from pdf: %d pages, %s, %s", rec.ID, len(res.Pages), res.Orientation, humanize.Bytes(uint64(len(file.Data)))),
		Service: "flipbook",
	})

	return &ports.Created{Ebook: rec, PageCount: len(res.Pages)}, nil
}

func (s *ebookService) Get(ctx context.Context, id string) (*ports.Ebook, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ebookService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// uploadAll stores files with bounded parallelism. locators[i] belongs to
// files[i]. On the first failure the rest is cancelled and every blob that
// made it to the store is deleted.
func (s *ebookService) uploadAll(ctx context.Context, ownerID string, files []ports.Upload) ([]string, error) {
	locators := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)

	for i := range files {
		idx := i
		f := files[i]
		g.Go(func() error {
			loc, err := s.store.Upload(gctx, ownerID, f.Filename, bytes.NewReader(f.Data), int64(len(f.Data)), contentTypeOf(f))
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ports.ErrUploadFailed, f.Filename, err)
			}
			locators[idx] = loc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var stored []string
		for _, loc := range locators {
			if loc != "" {
				stored = append(stored, loc)
			}
		}
		s.discard(ctx, stored)
		return nil, err
	}

	return locators, nil
}

// discard removes orphaned blobs. Best effort: failures are only logged.
func (s *ebookService) discard(ctx context.Context, locators []string) {
	ctx = context.WithoutCancel(ctx)
	for _, loc := range locators {
		if err := s.store.Delete(ctx, loc); err != nil {
			s.log.Log(logger.LogEntry{
				Level:   "warn",
				Message: "failed to delete orphaned blob " + loc,
				Service: "flipbook",
				Error:   err,
			})
		}
	}
}

// ShareURL: публичная ссылка на просмотр
func ShareURL(origin, id string) string {
	return strings.TrimRight(origin, "/") + "/v/" + id
}

// TitleFrom takes the base file name up to the first dot.
func TitleFrom(filename string) string {
	name := filename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name, _, _ = strings.Cut(name, ".")
	if strings.TrimSpace(name) == "" {
		return UntitledTitle
	}
	return name
}

// Classify accepts exactly one PDF or one or more images.
func Classify(files []ports.Upload) (string, error) {
	if len(files) == 0 {
		return "", ports.ErrUnsupportedInput
	}
	if len(files) == 1 && contentTypeOf(files[0]) == mimePDF {
		return ports.TypePDF, nil
	}
	for _, f := range files {
		if !strings.HasPrefix(contentTypeOf(f), "image/") {
			return "", ports.ErrUnsupportedInput
		}
	}
	return ports.TypeImages, nil
}

// contentTypeOf trusts a specific client header and sniffs otherwise.
func contentTypeOf(f ports.Upload) string {
	ct := strings.ToLower(strings.TrimSpace(f.ContentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	sniffed := http.DetectContentType(f.Data)
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	return sniffed
}

func imageOrientation(data []byte) conversion.Orientation {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return conversion.Portrait
	}
	return conversion.OrientationOf(cfg.Width, cfg.Height)
}

func totalSize(files []ports.Upload) uint64 {
	var n uint64
	for _, f := range files {
		n += uint64(len(f.Data))
	}
	return n
}
