package otel

import (
	"context"
	"sync"

	eventbus "github.com/hanpama/graphplan/internal/eventbus"
	events "github.com/hanpama/graphplan/internal/events"
	reqid "github.com/hanpama/graphplan/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithInsecure()))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	sub := &subscriber{tracer: otel.Tracer("graphplan")}
	sub.register()

	return tp.Shutdown, nil
}

type subscriber struct {
	tracer        trace.Tracer
	httpSpans     sync.Map // rid -> trace.Span
	analysisSpans sync.Map // rid -> trace.Span
}

// analysisParent resolves the span an analysis event should nest under:
// the HTTP request span when the event originated from the server,
// otherwise the ambient context.
func (s *subscriber) analysisParent(ctx context.Context, rid int64) context.Context {
	if v, ok := s.httpSpans.Load(rid); ok {
		return trace.ContextWithSpan(ctx, v.(trace.Span))
	}
	return ctx
}

func (s *subscriber) register() {
	eventbus.Subscribe(func(ctx context.Context, e events.HTTPStart) {
		rid, _ := reqid.FromContext(ctx)
		_, span := s.tracer.Start(ctx, "http.request")
		span.SetAttributes(
			semconv.HTTPMethodKey.String(e.Request.Method),
			attribute.String("http.target", e.Request.URL.Path),
		)
		s.httpSpans.Store(rid, span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
		rid, _ := reqid.FromContext(ctx)
		v, ok := s.httpSpans.LoadAndDelete(rid)
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
		span.End()
	})

	eventbus.Subscribe(func(ctx context.Context, e events.ValidationStart) {
		rid, _ := reqid.FromContext(ctx)
		_, span := s.tracer.Start(s.analysisParent(ctx, rid), "graphql.validate")
		span.SetAttributes(attribute.String("graphql.operation.name", e.OperationName))
		s.analysisSpans.Store(rid, span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.ValidationFinish) {
		rid, _ := reqid.FromContext(ctx)
		v, ok := s.analysisSpans.LoadAndDelete(rid)
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(attribute.Int("graphql.diagnostic_count", e.DiagnosticCount))
		span.End()
	})

	eventbus.Subscribe(func(ctx context.Context, e events.PlanStart) {
		rid, _ := reqid.FromContext(ctx)
		_, span := s.tracer.Start(s.analysisParent(ctx, rid), "graphql.plan")
		span.SetAttributes(attribute.String("graphql.operation.name", e.OperationName))
		s.analysisSpans.Store(rid, span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.PlanFinish) {
		rid, _ := reqid.FromContext(ctx)
		v, ok := s.analysisSpans.LoadAndDelete(rid)
		if !ok {
			return
		}
		span := v.(trace.Span)
		if e.Err != nil {
			span.RecordError(e.Err)
		}
		span.End()
	})
}
