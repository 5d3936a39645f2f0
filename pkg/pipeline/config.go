package pipeline

import (
	"log/slog"

	"github.com/adrianliechti/docscan/pkg/dispatcher"
	"github.com/adrianliechti/docscan/pkg/merge"
	"github.com/adrianliechti/docscan/pkg/source"
)

type Option func(*Pipeline)

// WithRoot sets the directory that holds the output document and the cache.
func WithRoot(root string) Option {
	return func(p *Pipeline) {
		p.root = root
	}
}

func WithLoader(options ...source.Option) Option {
	return func(p *Pipeline) {
		p.loader = append(p.loader, options...)
	}
}

func WithDispatcher(options ...dispatcher.Option) Option {
	return func(p *Pipeline) {
		p.dispatcher = append(p.dispatcher, options...)
	}
}

func WithMerge(options ...merge.Option) Option {
	return func(p *Pipeline) {
		p.merge = append(p.merge, options...)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}
