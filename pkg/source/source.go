package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrianliechti/docscan/pkg/job"
)

// Loader splits an input path into the ordered pages of a job.
type Loader struct {
	runner Runner
	logger *slog.Logger

	dpi int

	pdfinfo  string
	pdftoppm string
}

func New(options ...Option) *Loader {
	l := &Loader{
		dpi: 144,

		pdfinfo:  "pdfinfo",
		pdftoppm: "pdftoppm",
	}

	for _, option := range options {
		option(l)
	}

	if l.logger == nil {
		l.logger = slog.Default()
	}

	if l.runner == nil {
		l.runner = execRunner{logger: l.logger}
	}

	return l
}

// Load picks a strategy based on the input: a directory of images, a PDF or
// a single image.
func (l *Loader) Load(ctx context.Context, path string) (*job.Job, error) {
	abs, err := filepath.Abs(path)

	if err != nil {
		return nil, inputError(path, fmt.Errorf("%w: %w", ErrCorruptInput, err))
	}

	info, err := os.Stat(abs)

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, inputError(path, fmt.Errorf("%w: path does not exist", ErrCorruptInput))
		}

		return nil, inputError(path, fmt.Errorf("%w: %w", ErrCorruptInput, err))
	}

	base := filepath.Base(abs)

	j := &job.Job{
		Input: abs,

		Name:     stem(base),
		CacheKey: stem(base),
	}

	ext := strings.ToLower(filepath.Ext(base))

	switch {
	case info.IsDir():
		j.Mode = job.ModeFolder
		j.CacheKey = base

		j.Pages, err = l.loadFolder(abs)

	case ext == ".pdf":
		j.Mode = job.ModePDF
		j.Pages, err = l.loadPDF(ctx, abs)

	case IsImage(ext):
		j.Mode = job.ModeSingleImage

		var page *job.Page
		page, err = loadImage(0, abs)

		j.Pages = []*job.Page{page}

	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if err != nil {
		var inputErr *InputError

		if errors.As(err, &inputErr) {
			return nil, err
		}

		if errors.Is(err, ErrUnsupportedFormat) || errors.Is(err, ErrEmptyInput) || errors.Is(err, ErrCorruptInput) {
			return nil, inputError(path, err)
		}

		return nil, err
	}

	l.logger.Debug("input loaded", "input", abs, "mode", j.Mode, "pages", j.Len())

	return j, nil
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
