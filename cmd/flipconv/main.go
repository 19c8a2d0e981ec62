package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Vovarama1992/flipbook/internal/pdf"
)

var (
	outDir   string
	width    int
	timeout  time.Duration
	parallel int
)

var rootCmd = &cobra.Command{
	Use:   "flipconv",
	Short: "Local tools for flipbook conversion",
}

var convertCmd = &cobra.Command{
	Use:   "convert <file.pdf>",
	Short: "Rasterize a PDF into page images",
	Long:  "Rasterize every page of a local PDF with the same pipeline the server uses and write page-NNN.jpg files.",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: next to the PDF)")
	convertCmd.Flags().IntVarP(&width, "width", "w", pdf.DefaultRenderWidth, "page width in pixels")
	convertCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "conversion timeout")
	convertCmd.Flags().IntVarP(&parallel, "parallel", "p", 4, "pages rendered at once")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	path := args[0]

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	if outDir == "" {
		base := filepath.Base(path)
		outDir = filepath.Join(filepath.Dir(path), base[:len(base)-len(filepath.Ext(base))]+"-pages")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}

	svc := pdf.NewPDFService(pdf.NewPopplerRasterizer(), pdf.Options{
		Width:    width,
		Timeout:  timeout,
		Parallel: parallel,
	})

	started := time.Now()
	res, err := svc.Convert(context.Background(), f)
	if err != nil {
		return err
	}

	var total uint64
	for _, p := range res.Pages {
		name := filepath.Join(outDir, fmt.Sprintf("page-%03d.jpg", p.Index+1))
		if err := os.WriteFile(name, p.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		total += uint64(len(p.Data))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d pages, %s, %s written to %s in %s\n",
		len(res.Pages), res.Orientation, humanize.Bytes(total), outDir,
		time.Since(started).Round(time.Millisecond))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
