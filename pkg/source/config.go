package source

import (
	"log/slog"
)

type Option func(*Loader)

func WithRunner(runner Runner) Option {
	return func(l *Loader) {
		l.runner = runner
	}
}

// WithDPI sets the rasterization resolution of PDF pages.
func WithDPI(dpi int) Option {
	return func(l *Loader) {
		if dpi > 0 {
			l.dpi = dpi
		}
	}
}

func WithPoppler(pdfinfo, pdftoppm string) Option {
	return func(l *Loader) {
		if pdfinfo != "" {
			l.pdfinfo = pdfinfo
		}

		if pdftoppm != "" {
			l.pdftoppm = pdftoppm
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".bmp":  "image/bmp",
	".gif":  "image/gif",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

// folderTypes are the extensions picked up in folder mode. The set is
// narrower than imageTypes so page indices match caches written by the
// Python tool.
var folderTypes = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// IsImage reports whether ext is accepted as a single image input.
func IsImage(ext string) bool {
	_, ok := imageTypes[ext]
	return ok
}

// IsFolderImage reports whether ext is collected from a folder input.
func IsFolderImage(ext string) bool {
	return folderTypes[ext]
}
