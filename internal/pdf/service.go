package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Vovarama1992/flipbook/internal/conversion"
)

type Options struct {
	Width    int
	Timeout  time.Duration
	Parallel int
}

type PDFService struct {
	conv     Rasterizer
	width    int
	timeout  time.Duration
	parallel int
}

func NewPDFService(c Rasterizer, opts Options) *PDFService {
	s := &PDFService{
		conv:     c,
		width:    opts.Width,
		timeout:  opts.Timeout,
		parallel: opts.Parallel,
	}
	if s.width <= 0 {
		s.width = DefaultRenderWidth
	}
	if s.timeout <= 0 {
		s.timeout = 2 * time.Minute
	}
	if s.parallel <= 0 {
		s.parallel = 4
	}
	return s
}

// Convert rasterizes every page of pdf. Pages render concurrently and are
// collected by a conversion.Coordinator, so the result is ordered by page
// index. A page that fails or stalls past the timeout fails the whole
// conversion.
func (s *PDFService) Convert(ctx context.Context, pdf io.Reader) (conversion.Result, error) {
	input, cleanup, err := spool(pdf)
	if err != nil {
		return conversion.Result{}, err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	coord := conversion.New(nil, nil)

	total, err := s.conv.PageCount(ctx, input)
	if err != nil {
		err = fmt.Errorf("%w: %v", conversion.ErrDocumentLoad, err)
		coord.Fail(err)
		return conversion.Result{}, err
	}
	if err := coord.Loaded(total); err != nil {
		return conversion.Result{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for i := 0; i < total; i++ {
			idx := i
			g.Go(func() error {
				p, err := s.conv.RenderPage(gctx, input, idx, s.width)
				if err != nil {
					return err
				}
				p.Index = idx
				return coord.Arrive(p)
			})
		}
		if err := g.Wait(); err != nil {
			coord.Fail(err)
		}
	}()

	res, err := coord.Wait(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		done, _ := coord.Progress()
		err = fmt.Errorf("%w: %d of %d pages after %s", conversion.ErrRenderTimeout, done, total, s.timeout)
		coord.Fail(err)
	}

	// stop in-flight renders before the temp dir goes away
	cancel()
	<-drained

	if err != nil {
		return conversion.Result{}, err
	}
	return res, nil
}

// PageCount opens pdf only far enough to count its pages.
func (s *PDFService) PageCount(ctx context.Context, pdf io.Reader) (int, error) {
	input, cleanup, err := spool(pdf)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	n, err := s.conv.PageCount(ctx, input)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", conversion.ErrDocumentLoad, err)
	}
	return n, nil
}

// RenderPage renders a single 0-based page of pdf.
func (s *PDFService) RenderPage(ctx context.Context, pdf io.Reader, index int) (conversion.PageImage, error) {
	input, cleanup, err := spool(pdf)
	if err != nil {
		return conversion.PageImage{}, err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	total, err := s.conv.PageCount(ctx, input)
	if err != nil {
		return conversion.PageImage{}, fmt.Errorf("%w: %v", conversion.ErrDocumentLoad, err)
	}
	if index < 0 || index >= total {
		return conversion.PageImage{}, fmt.Errorf("%w: %d not in [0,%d)", conversion.ErrPageOutOfRange, index, total)
	}

	p, err := s.conv.RenderPage(ctx, input, index, s.width)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return conversion.PageImage{}, fmt.Errorf("%w: page %d", conversion.ErrRenderTimeout, index+1)
		}
		return conversion.PageImage{}, err
	}
	p.Index = index
	return p, nil
}

// spool copies pdf into a fresh temp dir and returns the file path.
func spool(pdf io.Reader) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "pdfconv-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	input := filepath.Join(tmpDir, "input.pdf")
	f, err := os.Create(input)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	if _, err := io.Copy(f, pdf); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("read pdf: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return input, cleanup, nil
}
