package obs

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// InitTracing installs a global TracerProvider. When debug is false, spans
// are still created (internal/proxy always starts one per exchange) but
// exported nowhere useful beyond in-process context propagation; when
// true, spans are written as JSON to w (SPEC_FULL.md D.2's --otel-debug
// flag), grounded on sidedotdev-sidekick's stdouttrace wiring pattern.
func InitTracing(debug bool, w io.Writer) (shutdown func(context.Context) error, err error) {
	res := resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName("cc-dump"))

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if debug {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
