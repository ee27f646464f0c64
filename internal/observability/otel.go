// Package observability provides the OpenTelemetry TracerProvider configured
// with an OTLP exporter for the Lambda handlers.
package observability

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

// Tracing holds the tracer provider and a shutdown function to flush spans
// before the runtime freezes the execution environment.
type Tracing struct {
	TracerProvider *sdktrace.TracerProvider
	Shutdown       func(context.Context) error
}

// NewTracing creates a TracerProvider that exports via OTLP gRPC to the given
// endpoint. endpoint may be a URL with an optional path (e.g.
// http://localhost:4317); the path is dropped and only host:port is dialed.
// If empty, a no-op provider is returned and Shutdown is a no-op. https
// endpoints use TLS.
func NewTracing(ctx context.Context, endpoint, serviceName string) (*Tracing, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return &Tracing{
			TracerProvider: sdktrace.NewTracerProvider(),
			Shutdown:       func(context.Context) error { return nil },
		}, nil
	}

	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid OTLP endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid OTLP endpoint %q: missing host", endpoint)
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(u.Host)}
	if u.Scheme != "https" {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	return &Tracing{TracerProvider: tp, Shutdown: tp.Shutdown}, nil
}

// SetGlobal sets the global TracerProvider so instrumented code picks it up.
func (t *Tracing) SetGlobal() {
	if t.TracerProvider != nil {
		otel.SetTracerProvider(t.TracerProvider)
	}
}
