// Package tracing configures the global OpenTelemetry tracer provider and
// propagators for the fsroute server.
package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/propagators/ot"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Config struct {
	Enabled        bool
	Endpoint       string
	ErrorHandler   func(error)
	Insecure       bool
	ServiceName    string
	ServiceVersion string
}

// Propagator is installed globally by Instrument. It reads and writes W3C
// trace context, W3C baggage and OpenTracing headers.
func Propagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
		ot.OT{},
	)
}

// Instrument sets the global tracer provider. When tracing is enabled spans
// are batched to an OTLP/HTTP collector at config.Endpoint; otherwise a
// no-op provider is installed. The returned function flushes and stops the
// provider.
func Instrument(config Config, logger *slog.Logger) (func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ErrorHandler != nil {
		otel.SetErrorHandler(otel.ErrorHandlerFunc(config.ErrorHandler))
	}

	if !config.Enabled {
		logger.Debug("tracing disabled, configuring noop tracer provider")
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func() {}, nil
	}

	ctx := context.Background()

	otlpOptions := []otlptracehttp.Option{otlptracehttp.WithEndpoint(config.Endpoint)}
	if config.Insecure {
		otlpOptions = append(otlpOptions, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(otlpOptions...))
	if err != nil {
		return nil, err
	}

	attributes := []attribute.KeyValue{attribute.String("service.name", config.ServiceName)}
	if config.ServiceVersion != "" {
		attributes = append(attributes, attribute.String("service.version", config.ServiceVersion))
	}

	res, err := resource.New(ctx, resource.WithAttributes(attributes...))
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)),
	)

	logger.Info("tracing enabled", "endpoint", config.Endpoint, "service", config.ServiceName)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(Propagator())

	return func() {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			logger.Error("failed to stop tracer", "error", err)
		}
	}, nil
}
