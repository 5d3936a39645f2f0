package config

import (
	"net/http"

	"github.com/adrianliechti/docscan/pkg/limiter"
	"github.com/adrianliechti/docscan/pkg/otel"
	"github.com/adrianliechti/docscan/pkg/recognizer"
	"github.com/adrianliechti/docscan/pkg/recognizer/zhipu"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// Recognizer builds the recognition provider: the zhipu client, rate limited
// and instrumented.
func (c *Config) Recognizer() (recognizer.Provider, error) {
	var transport http.RoundTripper = http.DefaultTransport

	proxy, err := c.proxy.proxyTransport()

	if err != nil {
		return nil, err
	}

	if proxy != nil {
		transport = proxy
	}

	client := &http.Client{
		Timeout:   c.Timeout,
		Transport: otelhttp.NewTransport(transport),
	}

	var p recognizer.Provider

	p, err = zhipu.New(c.Endpoint,
		zhipu.WithClient(client),
		zhipu.WithToken(c.APIKey),
		zhipu.WithModel(c.Model),
	)

	if err != nil {
		return nil, err
	}

	if _, ok := p.(limiter.Recognizer); !ok {
		p = limiter.NewRecognizer(createLimiter(c.RateLimit), p)
	}

	if _, ok := p.(otel.Recognizer); !ok {
		p = otel.NewRecognizer("zhipu", c.Model, p)
	}

	return p, nil
}

func createLimiter(limit int) *rate.Limiter {
	if limit <= 0 {
		return nil
	}

	return rate.NewLimiter(rate.Limit(limit), limit)
}
