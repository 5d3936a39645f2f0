package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrianliechti/docscan/pkg/job"
)

var pdfMagic = []byte("%PDF-")

// loadPDF returns one page per PDF page. Pages are rasterized on first use,
// so pages already in the cache are never rendered.
func (l *Loader) loadPDF(ctx context.Context, path string) ([]*job.Page, error) {
	if err := checkPDF(path); err != nil {
		return nil, err
	}

	count, err := l.pdfPages(ctx, path)

	if err != nil {
		return nil, err
	}

	if count == 0 {
		return nil, fmt.Errorf("%w: pdf has no pages", ErrEmptyInput)
	}

	pages := make([]*job.Page, 0, count)

	for i := range count {
		number := i + 1

		load := func(ctx context.Context) ([]byte, error) {
			return l.renderPage(ctx, path, number)
		}

		pages = append(pages, job.NewPage(i, fmt.Sprintf("Page %d", number), fmt.Sprintf("page-%d.png", number), "image/png", load))
	}

	return pages, nil
}

func checkPDF(path string) error {
	f, err := os.Open(path)

	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptInput, err)
	}

	defer f.Close()

	header := make([]byte, 1024)
	n, err := io.ReadFull(f, header)

	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrCorruptInput, err)
	}

	if !bytes.Contains(header[:n], pdfMagic) {
		return fmt.Errorf("%w: missing pdf header", ErrCorruptInput)
	}

	return nil
}

// pdfPages reads the page count reported by pdfinfo.
func (l *Loader) pdfPages(ctx context.Context, path string) (int, error) {
	out, err := l.runner.Run(ctx, l.pdfinfo, path)

	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return 0, fmt.Errorf("%s not found, install poppler: %w", l.pdfinfo, err)
		}

		if ctx.Err() != nil {
			return 0, ctx.Err()
		}

		return 0, fmt.Errorf("%w: %w", ErrCorruptInput, err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))

	for scanner.Scan() {
		key, val, ok := strings.Cut(scanner.Text(), ":")

		if !ok || strings.TrimSpace(key) != "Pages" {
			continue
		}

		count, err := strconv.Atoi(strings.TrimSpace(val))

		if err != nil {
			return 0, fmt.Errorf("%w: invalid page count %q", ErrCorruptInput, val)
		}

		return count, nil
	}

	return 0, fmt.Errorf("%w: pdfinfo reported no page count", ErrCorruptInput)
}

// renderPage rasterizes one page (1-based) to PNG.
func (l *Loader) renderPage(ctx context.Context, path string, number int) ([]byte, error) {
	dir, err := os.MkdirTemp("", "docscan-page-*")

	if err != nil {
		return nil, err
	}

	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	page := strconv.Itoa(number)

	// pdftoppm -f N -l N -r DPI -png -singlefile <in.pdf> <dir/page>
	if _, err := l.runner.Run(ctx, l.pdftoppm, "-f", page, "-l", page, "-r", strconv.Itoa(l.dpi), "-png", "-singlefile", path, prefix); err != nil {
		return nil, fmt.Errorf("render page %d: %w", number, err)
	}

	data, err := os.ReadFile(prefix + ".png")

	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", number, err)
	}

	return data, nil
}
