package otel

import (
	"context"
	"time"

	"github.com/adrianliechti/docscan/pkg/recognizer"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

type Recognizer interface {
	Observable
	recognizer.Provider
}

type observableRecognizer struct {
	model    string
	provider string

	recognizer recognizer.Provider

	durationMetric metric.Float64Histogram
	requestMetric  metric.Int64Counter
	tokenMetric    metric.Int64Counter
}

func NewRecognizer(provider, model string, p recognizer.Provider) Recognizer {
	meter := otel.Meter(instrumentationName)

	durationMetric, _ := meter.Float64Histogram("docscan.recognition.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of page recognition requests"),
	)

	requestMetric, _ := meter.Int64Counter("docscan.recognition.requests",
		metric.WithDescription("Page recognition requests by outcome"),
	)

	tokenMetric, _ := meter.Int64Counter("docscan.recognition.tokens",
		metric.WithUnit("{token}"),
		metric.WithDescription("Tokens used by page recognition"),
	)

	return &observableRecognizer{
		recognizer: p,

		model:    model,
		provider: provider,

		durationMetric: durationMetric,
		requestMetric:  requestMetric,
		tokenMetric:    tokenMetric,
	}
}

func (p *observableRecognizer) otelSetup() {
}

func (p *observableRecognizer) Recognize(ctx context.Context, input recognizer.File, options *recognizer.RecognizeOptions) (*recognizer.Result, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "recognize "+p.model)
	defer span.End()

	timestamp := time.Now()

	result, err := p.recognizer.Recognize(ctx, input, options)

	attrs := []KeyValue{
		String("recognition.provider", p.provider),
		String("recognition.model", p.model),
	}

	if options != nil && options.Label != "" {
		span.SetAttributes(String("recognition.page", options.Label))
	}

	span.SetAttributes(Int("recognition.image.size", len(input.Content)))

	span.SetAttributes(attrs...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	p.durationMetric.Record(ctx, time.Since(timestamp).Seconds(), metric.WithAttributes(attrs...))
	p.requestMetric.Add(ctx, 1, metric.WithAttributes(KeyValues(attrs, []KeyValue{outcomeAttr(err)})...))

	if result != nil && result.Usage != nil {
		if result.Usage.PromptTokens > 0 {
			p.tokenMetric.Add(ctx, int64(result.Usage.PromptTokens), metric.WithAttributes(KeyValues(attrs, []KeyValue{String("token.type", "input")})...))
		}

		if result.Usage.CompletionTokens > 0 {
			p.tokenMetric.Add(ctx, int64(result.Usage.CompletionTokens), metric.WithAttributes(KeyValues(attrs, []KeyValue{String("token.type", "output")})...))
		}
	}

	return result, err
}
