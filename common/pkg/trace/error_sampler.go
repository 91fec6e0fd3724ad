/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package trace

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/klog/v2"
)

// ErrorOnlySpanProcessor exports spans synchronously on End, but only for
// traces that recorded an error. Healthy traffic costs no exporter
// bandwidth.
//
// A trace is marked as soon as one of its spans ends with an error
// status. Spans of a marked trace that end afterwards (the parents, which
// outlive their children) are exported too, so the collector can
// reconstruct the failing call path. The mark is dropped when the root
// span ends.
type ErrorOnlySpanProcessor struct {
	exporter           sdktrace.SpanExporter
	errorSamplingRatio float64

	mu     sync.Mutex
	traces map[trace.TraceID]struct{}

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewErrorOnlySpanProcessor wraps exporter with error-only filtering.
// errorSamplingRatio in [0, 1] further downsamples errored traces.
func NewErrorOnlySpanProcessor(exporter sdktrace.SpanExporter, errorSamplingRatio float64) *ErrorOnlySpanProcessor {
	return &ErrorOnlySpanProcessor{
		exporter:           exporter,
		errorSamplingRatio: errorSamplingRatio,
		traces:             make(map[trace.TraceID]struct{}),
		rand:               rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// OnStart implements sdktrace.SpanProcessor. Nothing to do at span start.
func (p *ErrorOnlySpanProcessor) OnStart(ctx context.Context, s sdktrace.ReadWriteSpan) {}

// OnEnd exports s when its trace is marked as errored.
func (p *ErrorOnlySpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	traceID := s.SpanContext().TraceID()

	p.mu.Lock()
	_, marked := p.traces[traceID]
	if !marked && s.Status().Code == codes.Error && p.shouldSample() {
		p.traces[traceID] = struct{}{}
		marked = true
	}
	if !s.Parent().IsValid() {
		// Root span ended, the trace is complete.
		delete(p.traces, traceID)
	}
	p.mu.Unlock()

	if !marked {
		return
	}
	if err := p.exporter.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{s}); err != nil {
		klog.Errorf("Failed to export span %s: %v", s.Name(), err)
	}
}

// shouldSample decides whether a newly errored trace is kept.
func (p *ErrorOnlySpanProcessor) shouldSample() bool {
	if p.errorSamplingRatio >= 1 {
		return true
	}
	if p.errorSamplingRatio <= 0 {
		return false
	}
	p.randMu.Lock()
	defer p.randMu.Unlock()
	return p.rand.Float64() < p.errorSamplingRatio
}

// Shutdown drops pending trace marks and shuts the wrapped exporter down.
func (p *ErrorOnlySpanProcessor) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.traces = make(map[trace.TraceID]struct{})
	p.mu.Unlock()
	return p.exporter.Shutdown(ctx)
}

// ForceFlush implements sdktrace.SpanProcessor. Exports happen inline in
// OnEnd, so there is nothing buffered to flush.
func (p *ErrorOnlySpanProcessor) ForceFlush(ctx context.Context) error {
	return nil
}
