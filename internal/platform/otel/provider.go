// Package otel configures OpenTelemetry tracing for storefront processes.
package otel

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/paidportfolio/internal/platform/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName prefixes tracer names created by storefront packages.
const InstrumentationName = "github.com/louisbranch/paidportfolio"

type settings struct {
	Endpoint    string  `env:"STOREFRONT_OTEL_ENDPOINT"`
	Enabled     string  `env:"STOREFRONT_OTEL_ENABLED"`
	SampleRatio float64 `env:"STOREFRONT_OTEL_SAMPLE_RATIO" envDefault:"1"`
}

func (s settings) active() bool {
	if strings.EqualFold(strings.TrimSpace(s.Enabled), "false") {
		return false
	}
	return strings.TrimSpace(s.Endpoint) != ""
}

func (s settings) sampler() sdktrace.Sampler {
	switch {
	case s.SampleRatio >= 1:
		return sdktrace.AlwaysSample()
	case s.SampleRatio <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(s.SampleRatio))
	}
}

// Setup initialises OpenTelemetry tracing for the given service.
//
// Tracing is opt-in: when STOREFRONT_OTEL_ENDPOINT is empty or
// STOREFRONT_OTEL_ENABLED is "false", Setup returns a no-op shutdown function and
// the global provider stays the default no-op provider.
//
// The returned shutdown function flushes pending spans and should be deferred by
// the caller.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	var cfg settings
	if err := config.ParseEnv(&cfg); err != nil {
		return noop, fmt.Errorf("otel settings: %w", err)
	}
	if !cfg.active() {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(cfg.Endpoint),
	)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(cfg.sampler()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Tracer returns a named tracer from the global provider.
func Tracer(component string) trace.Tracer {
	component = strings.Trim(strings.TrimSpace(component), "/")
	if component == "" {
		return otel.Tracer(InstrumentationName)
	}
	return otel.Tracer(InstrumentationName + "/" + component)
}
