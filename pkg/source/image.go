package source

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/adrianliechti/docscan/pkg/job"
)

// loadFolder returns one page per image in dir, ordered by file name so page
// indices stay stable across runs.
func (l *Loader) loadFolder(dir string) ([]*job.Page, error) {
	entries, err := os.ReadDir(dir)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptInput, err)
	}

	var names []string

	for _, e := range entries {
		name := e.Name()

		if strings.HasPrefix(name, ".") {
			continue
		}

		if !IsFolderImage(strings.ToLower(filepath.Ext(name))) {
			continue
		}

		info, err := os.Stat(filepath.Join(dir, name))

		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		names = append(names, name)
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no supported images in directory", ErrEmptyInput)
	}

	slices.Sort(names)

	pages := make([]*job.Page, 0, len(names))

	for i, name := range names {
		page, err := loadImage(i, filepath.Join(dir, name))

		if err != nil {
			return nil, inputError(filepath.Join(dir, name), err)
		}

		pages = append(pages, page)
	}

	l.logger.Info("folder input", "dir", filepath.Base(dir), "images", len(pages))

	return pages, nil
}

func loadImage(index int, path string) (*job.Page, error) {
	if err := checkImage(path); err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	contentType := imageTypes[strings.ToLower(filepath.Ext(name))]

	load := func(ctx context.Context) ([]byte, error) {
		return os.ReadFile(path)
	}

	return job.NewPage(index, stem(name), name, contentType, load), nil
}

func checkImage(path string) error {
	f, err := os.Open(path)

	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptInput, err)
	}

	defer f.Close()

	if _, _, err := image.DecodeConfig(f); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorruptInput, filepath.Base(path), err)
	}

	return nil
}
