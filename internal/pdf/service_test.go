package pdf

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vovarama1992/flipbook/internal/conversion"
)

type fakeRasterizer struct {
	pages    int
	countErr error
	// dims per page index, width then height
	dims   map[int][2]int
	delay  func(index int) time.Duration
	stall  map[int]bool
	fail   map[int]error
	widths []int

	mu      sync.Mutex
	arrived []int
	seen    string
}

func (f *fakeRasterizer) PageCount(_ context.Context, path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	f.seen = string(b)
	f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.pages, nil
}

func (f *fakeRasterizer) RenderPage(ctx context.Context, _ string, index, width int) (conversion.PageImage, error) {
	if f.delay != nil {
		select {
		case <-time.After(f.delay(index)):
		case <-ctx.Done():
			return conversion.PageImage{}, ctx.Err()
		}
	}
	if f.stall[index] {
		<-ctx.Done()
		return conversion.PageImage{}, ctx.Err()
	}
	if err := f.fail[index]; err != nil {
		return conversion.PageImage{}, err
	}

	w, h := 600, 800
	if d, ok := f.dims[index]; ok {
		w, h = d[0], d[1]
	}

	f.mu.Lock()
	f.arrived = append(f.arrived, index)
	f.widths = append(f.widths, width)
	f.mu.Unlock()

	return conversion.PageImage{
		Data:     []byte{byte(index)},
		Width:    w,
		Height:   h,
		MimeType: MimeJPEG,
	}, nil
}

func TestPDFService_ConvertOrdersPagesByIndex(t *testing.T) {
	// page 2 (index 1) first, then page 1, then page 3
	order := map[int]time.Duration{1: 0, 0: 30 * time.Millisecond, 2: 60 * time.Millisecond}
	r := &fakeRasterizer{
		pages: 3,
		delay: func(i int) time.Duration { return order[i] },
	}
	svc := NewPDFService(r, Options{Parallel: 3, Timeout: 5 * time.Second})

	res, err := svc.Convert(context.Background(), strings.NewReader("%PDF-1.7 test"))
	require.NoError(t, err)

	require.Len(t, res.Pages, 3)
	for i, p := range res.Pages {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, []byte{byte(i)}, p.Data)
	}
	assert.Equal(t, []int{1, 0, 2}, r.arrived)
	assert.Equal(t, conversion.Portrait, res.Orientation)
	assert.Equal(t, "%PDF-1.7 test", r.seen)
	for _, w := range r.widths {
		assert.Equal(t, DefaultRenderWidth, w)
	}
}

func TestPDFService_LandscapeSinglePage(t *testing.T) {
	r := &fakeRasterizer{pages: 1, dims: map[int][2]int{0: {800, 450}}}
	svc := NewPDFService(r, Options{})

	res, err := svc.Convert(context.Background(), bytes.NewReader([]byte("%PDF")))
	require.NoError(t, err)
	assert.Equal(t, conversion.Landscape, res.Orientation)
}

func TestPDFService_OrientationFromFirstPageOnly(t *testing.T) {
	r := &fakeRasterizer{
		pages: 3,
		dims:  map[int][2]int{0: {600, 800}, 1: {1600, 800}, 2: {1600, 800}},
	}
	svc := NewPDFService(r, Options{})

	res, err := svc.Convert(context.Background(), strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, conversion.Portrait, res.Orientation)
}

func TestPDFService_DocumentLoadError(t *testing.T) {
	r := &fakeRasterizer{countErr: errors.New("not a pdf")}
	svc := NewPDFService(r, Options{})

	_, err := svc.Convert(context.Background(), strings.NewReader("garbage"))
	require.Error(t, err)
	assert.ErrorIs(t, err, conversion.ErrDocumentLoad)
	assert.Contains(t, err.Error(), "not a pdf")
}

func TestPDFService_PageFailureFailsConversion(t *testing.T) {
	r := &fakeRasterizer{pages: 3, fail: map[int]error{1: errors.New("bad xref")}}
	svc := NewPDFService(r, Options{})

	_, err := svc.Convert(context.Background(), strings.NewReader("%PDF"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad xref")
}

func TestPDFService_StalledPageTimesOut(t *testing.T) {
	r := &fakeRasterizer{pages: 2, stall: map[int]bool{1: true}}
	svc := NewPDFService(r, Options{Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := svc.Convert(context.Background(), strings.NewReader("%PDF"))
	require.Error(t, err)
	assert.ErrorIs(t, err, conversion.ErrRenderTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestPDFService_RenderPage(t *testing.T) {
	r := &fakeRasterizer{pages: 3}
	svc := NewPDFService(r, Options{Width: 320})

	p, err := svc.RenderPage(context.Background(), strings.NewReader("%PDF"), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Index)
	assert.Equal(t, []int{320}, r.widths)

	_, err = svc.RenderPage(context.Background(), strings.NewReader("%PDF"), 3)
	assert.ErrorIs(t, err, conversion.ErrPageOutOfRange)
}

func TestPDFService_PageCount(t *testing.T) {
	svc := NewPDFService(&fakeRasterizer{pages: 7}, Options{})

	n, err := svc.PageCount(context.Background(), strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}
