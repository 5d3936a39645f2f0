package otel

import (
	"context"
	"errors"
	"os"

	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.38.0"
)

const instrumentationName = "github.com/adrianliechti/docscan"

var (
	EnableDebug     = false
	EnableTelemetry = false
)

func init() {
	EnableDebug = os.Getenv("DEBUG") != ""
	EnableTelemetry = os.Getenv("TELEMETRY") != ""
}

type Observable interface {
	otelSetup()
}

type shutdownFunc func(context.Context) error

// Setup installs OTLP log, metric and trace providers when telemetry is
// enabled. The returned function flushes and stops them.
func Setup(ctx context.Context, service, version string) (func(context.Context) error, error) {
	if !EnableTelemetry {
		return func(context.Context) error { return nil }, nil
	}

	resource, err := sdkresource.New(ctx,
		sdkresource.WithFromEnv(),
		sdkresource.WithAttributes(
			semconv.ServiceName(service),
			semconv.ServiceVersion(version),
		),
	)

	if err != nil {
		return nil, err
	}

	var shutdowns []shutdownFunc

	shutdown := func(ctx context.Context) error {
		var errs []error

		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}

		return errors.Join(errs...)
	}

	for _, setup := range []func(context.Context, *sdkresource.Resource) (shutdownFunc, error){
		setupTracer,
		setupMeter,
		setupLogger,
	} {
		fn, err := setup(ctx, resource)

		if err != nil {
			return nil, errors.Join(err, shutdown(ctx))
		}

		shutdowns = append(shutdowns, fn)
	}

	return shutdown, nil
}
