package job

import (
	"context"
	"errors"
	"sync"
)

type Mode string

const (
	ModeSingleImage Mode = "image"
	ModeFolder      Mode = "folder"
	ModePDF         Mode = "pdf"
)

// Job is one invocation against one input. Only its cache outlives the process.
type Job struct {
	// Input is the path the job was loaded from.
	Input string

	// Name is the input stem, used for the output document.
	Name string

	// CacheKey names the cache directory. It is the stem for files and the
	// full base name for directories.
	CacheKey string

	Mode  Mode
	Pages []*Page
}

func (j *Job) Len() int {
	return len(j.Pages)
}

// Page is one recognizable unit of the input. Index is dense and zero-based.
type Page struct {
	Index int

	Label string
	Name  string

	ContentType string

	load func(ctx context.Context) ([]byte, error)

	mu    sync.Mutex
	image []byte
}

func NewPage(index int, label, name, contentType string, load func(ctx context.Context) ([]byte, error)) *Page {
	return &Page{
		Index: index,

		Label: label,
		Name:  name,

		ContentType: contentType,

		load: load,
	}
}

// Image returns the page image, loading or rendering it on first use.
func (p *Page) Image(ctx context.Context) ([]byte, error) {
	if p.load == nil {
		return nil, errors.New("page has no image source")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.image != nil {
		return p.image, nil
	}

	data, err := p.load(ctx)

	if err != nil {
		return nil, err
	}

	p.image = data

	return data, nil
}

// Release drops the loaded image so finished pages do not pin memory.
func (p *Page) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.image = nil
}
