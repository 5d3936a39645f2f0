package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrianliechti/docscan/pkg/job"

	"github.com/google/renameio/v2"
)

var (
	ErrImmutable   = errors.New("cache entry already succeeded")
	ErrNotTerminal = errors.New("result is not terminal")
)

type entryStatus string

const (
	statusSuccess entryStatus = "success"
	statusFailed  entryStatus = "failed"
)

type entry struct {
	Text  string `json:"md_text,omitempty"`
	Usage *usage `json:"usage,omitempty"`

	Status entryStatus `json:"status,omitempty"`
	Error  string      `json:"error,omitempty"`

	Attempts int `json:"attempts,omitempty"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Cache persists page results, one file per page index, so an interrupted
// job can resume where it stopped.
type Cache struct {
	dir    string
	logger *slog.Logger
}

// Dir returns the cache directory of a job below root.
func Dir(root string, j *job.Job) string {
	return filepath.Join(root, "."+j.CacheKey+"_cache")
}

func Open(dir string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &Cache{
		dir:    dir,
		logger: logger,
	}, nil
}

func (c *Cache) Path() string {
	return c.dir
}

func (c *Cache) entryPath(index int) string {
	return filepath.Join(c.dir, fmt.Sprintf("page_%d.json", index+1))
}

// Get returns the persisted result of a page. Missing, truncated or malformed
// entries are reported as absent.
func (c *Cache) Get(index int) (job.Result, bool) {
	path := c.entryPath(index)

	data, err := os.ReadFile(path)

	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("cache entry unreadable", "path", path, "error", err)
		}

		return job.Result{}, false
	}

	e, err := decodeEntry(data)

	if err != nil {
		c.logger.Warn("cache entry invalid, recomputing", "path", path, "error", err)
		return job.Result{}, false
	}

	result := job.Result{
		Index: index,

		Text:  e.Text,
		Error: e.Error,

		Attempts: e.Attempts,
	}

	if e.Status == statusFailed {
		result.Status = job.StatusFailed
	} else {
		result.Status = job.StatusSuccess
	}

	if e.Usage != nil {
		result.Usage = &job.Usage{
			PromptTokens:     e.Usage.PromptTokens,
			CompletionTokens: e.Usage.CompletionTokens,
			TotalTokens:      e.Usage.TotalTokens,
		}
	}

	return result, true
}

// Put writes a terminal result. The write is atomic; a successful entry is
// never replaced.
func (c *Cache) Put(result job.Result) error {
	if !result.Status.Terminal() {
		return ErrNotTerminal
	}

	if existing, ok := c.Get(result.Index); ok && existing.Success() {
		return ErrImmutable
	}

	e := entry{
		Attempts: result.Attempts,
	}

	switch result.Status {
	case job.StatusSuccess:
		if result.Text == "" {
			return errors.New("empty success result")
		}

		e.Status = statusSuccess
		e.Text = result.Text

		if result.Usage != nil {
			e.Usage = &usage{
				PromptTokens:     result.Usage.PromptTokens,
				CompletionTokens: result.Usage.CompletionTokens,
				TotalTokens:      result.Usage.TotalTokens,
			}
		}

	case job.StatusFailed:
		e.Status = statusFailed
		e.Error = result.Error

		if e.Error == "" {
			e.Error = "unknown error"
		}
	}

	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(e); err != nil {
		return err
	}

	if err := renameio.WriteFile(c.entryPath(result.Index), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write cache entry %d: %w", result.Index+1, err)
	}

	return nil
}

// AllTerminal reports whether every page in [0, n) has a terminal entry.
func (c *Cache) AllTerminal(n int) bool {
	for i := range n {
		if _, ok := c.Get(i); !ok {
			return false
		}
	}

	return true
}

func decodeEntry(data []byte) (*entry, error) {
	var instance any

	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, err
	}

	if err := resolvedSchema.Validate(instance); err != nil {
		return nil, err
	}

	var e entry

	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}

	return &e, nil
}
