/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package trace

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"k8s.io/klog/v2"

	"github.com/labforge/homeops/common/pkg/config"
)

// Tracing modes accepted by InitTracer.
const (
	// TraceModeErrorOnly keeps every span recording but exports only the
	// traces that ended with an error.
	TraceModeErrorOnly = "error_only"
	// TraceModeAll batch-exports a sampled fraction of all traces.
	TraceModeAll = "all"
)

const (
	defaultOtlpEndpoint = "localhost:4317"
	dialTimeout         = 5 * time.Second
	shutdownTimeout     = 10 * time.Second
)

var tracerProvider *sdktrace.TracerProvider

// InitTracer wires the global OpenTelemetry tracer against the OTLP
// collector named in cfg. A nil or disabled config is a no-op, so callers
// can invoke it unconditionally during startup.
func InitTracer(serviceName string, cfg *config.TracingConfig) error {
	if cfg == nil || !cfg.Enable {
		klog.V(2).Infof("Tracing disabled for %s", serviceName)
		return nil
	}

	endpoint := cfg.OtlpEndpoint
	if endpoint == "" {
		endpoint = defaultOtlpEndpoint
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	conn, err := grpc.DialContext(ctx, endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		return fmt.Errorf("failed to create gRPC connection to %s: %w", endpoint, err)
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
		resource.WithHost(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	providerOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if cfg.Mode == TraceModeAll {
		var sampler sdktrace.Sampler
		switch {
		case cfg.SamplingRatio >= 1:
			sampler = sdktrace.AlwaysSample()
		case cfg.SamplingRatio <= 0:
			sampler = sdktrace.NeverSample()
		default:
			sampler = sdktrace.TraceIDRatioBased(cfg.SamplingRatio)
		}
		providerOpts = append(providerOpts,
			sdktrace.WithSampler(sampler),
			sdktrace.WithBatcher(exporter),
		)
	} else {
		// error_only: sample everything at the SDK level so the processor
		// sees whole traces, then export only the errored ones.
		providerOpts = append(providerOpts,
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithSpanProcessor(NewErrorOnlySpanProcessor(exporter, cfg.SamplingRatio)),
		)
	}

	tracerProvider = sdktrace.NewTracerProvider(providerOpts...)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	klog.Infof("OpenTelemetry tracer initialized: service=%s, endpoint=%s, mode=%s, sampling=%.2f",
		serviceName, endpoint, cfg.Mode, cfg.SamplingRatio)
	return nil
}

// CloseTracer flushes pending spans and shuts the provider down.
func CloseTracer() error {
	if tracerProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := tracerProvider.Shutdown(ctx); err != nil {
		klog.Errorf("Failed to shutdown tracer provider: %v", err)
		return err
	}
	tracerProvider = nil
	return nil
}

// StartSpan starts operationName as a child of the span in ctx, if any.
func StartSpan(ctx context.Context, operationName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer("").Start(ctx, operationName, opts...)
}

// SetAttributes sets attributes on the span in ctx.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attrs...)
	}
}

// RecordError records err on the span in ctx and marks the span errored.
func RecordError(ctx context.Context, err error, opts ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() && err != nil {
		span.RecordError(err, opts...)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetStatus sets the status of the span in ctx.
func SetStatus(ctx context.Context, code codes.Code, description string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetStatus(code, description)
	}
}

// GetTraceID returns the trace id of the span in ctx, or "" when ctx
// carries no sampled span.
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}
