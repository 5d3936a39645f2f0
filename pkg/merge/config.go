package merge

type Option func(*Engine)

// WithStrict makes Merge fail with a GapError instead of inserting
// placeholders for pages without text.
func WithStrict(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

func WithRules(rules ...Rule) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

func WithStitcher(s *Stitcher) Option {
	return func(e *Engine) {
		e.stitcher = s
	}
}

func WithFurniture(f *Furniture) Option {
	return func(e *Engine) {
		e.furniture = f
	}
}
