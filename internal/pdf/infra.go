package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/Vovarama1992/flipbook/internal/conversion"
)

type PopplerRasterizer struct {
	bin string
}

func NewPopplerRasterizer() *PopplerRasterizer {
	// pdfcpu must not create a config dir under $HOME on servers
	api.DisableConfigDir()
	return &PopplerRasterizer{bin: "pdftoppm"}
}

// PageCount validates the document with pdfcpu and returns its page count.
func (c *PopplerRasterizer) PageCount(ctx context.Context, path string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu: %w", err)
	}
	return n, nil
}

// RenderPage renders one page as JPEG scaled to width, height following
// the page aspect ratio. Output lands next to the input file.
func (c *PopplerRasterizer) RenderPage(
	ctx context.Context,
	path string,
	index, width int,
) (conversion.PageImage, error) {

	if width <= 0 {
		width = DefaultRenderWidth
	}

	n := strconv.Itoa(index + 1)
	outBase := filepath.Join(filepath.Dir(path), "page-"+n)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(
		ctx,
		c.bin,
		"-f", n,
		"-l", n,
		"-scale-to-x", strconv.Itoa(width),
		"-scale-to-y", "-1",
		"-jpeg",
		"-singlefile",
		path,
		outBase,
	)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return conversion.PageImage{}, fmt.Errorf("pdftoppm page %s: %w: %s", n, err, strings.TrimSpace(stderr.String()))
	}

	fn := outBase + ".jpg"
	b, err := os.ReadFile(fn)
	if err != nil {
		return conversion.PageImage{}, fmt.Errorf("read page %s: %w", n, err)
	}
	_ = os.Remove(fn)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return conversion.PageImage{}, fmt.Errorf("decode page %s: %w", n, err)
	}

	return conversion.PageImage{
		Index:    index,
		Data:     b,
		Width:    cfg.Width,
		Height:   cfg.Height,
		MimeType: MimeJPEG,
	}, nil
}
