package config

import (
	"log/slog"

	"github.com/adrianliechti/docscan/pkg/dispatcher"
	"github.com/adrianliechti/docscan/pkg/merge"
	"github.com/adrianliechti/docscan/pkg/pipeline"
	"github.com/adrianliechti/docscan/pkg/source"
)

// PipelineOptions maps the config onto the loader, dispatcher and merge
// stages of a pipeline rooted at root.
func (c *Config) PipelineOptions(root string, logger *slog.Logger) []pipeline.Option {
	var loader []source.Option

	loader = append(loader, source.WithDPI(c.DPI))

	if c.PDFInfo != "" || c.PDFToPPM != "" {
		loader = append(loader, source.WithPoppler(c.PDFInfo, c.PDFToPPM))
	}

	return []pipeline.Option{
		pipeline.WithRoot(root),
		pipeline.WithLogger(logger),

		pipeline.WithLoader(loader...),

		pipeline.WithDispatcher(
			dispatcher.WithConcurrency(c.Concurrency),
			dispatcher.WithMaxAttempts(c.Attempts),
			dispatcher.WithRetryFailed(c.RetryFailed),
		),

		pipeline.WithMerge(
			merge.WithStrict(c.Strict),
		),
	}
}
