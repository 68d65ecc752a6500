package telemetry

import (
	"context"
	"fmt"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TracerProvider owns the SDK tracer provider. Once built it is also the
// global provider, and W3C trace context plus baggage are propagated.
type TracerProvider struct {
	sdk      *sdktrace.TracerProvider
	provider trace.TracerProvider
	log      *zap.Logger

	spanProfiles bool
}

// NewTracerProvider batches spans to the collector over gRPC. While
// disabled the global no-op provider stays in place.
func NewTracerProvider(ctx context.Context, cfg Config, log *zap.Logger) (*TracerProvider, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.Enabled {
		log.Info("Trace export disabled")
		return &TracerProvider{log: log}, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("otlp trace exporter: %w", err)
	}
	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	tp := installTracer(log,
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SamplingRatio)))
	log.Info("Trace export enabled",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Float64("sampling_ratio", cfg.SamplingRatio))
	return tp, nil
}

// NewTracerProviderWithExporter exports every span synchronously to exp,
// which suits in-memory exporters in tests.
func NewTracerProviderWithExporter(exp sdktrace.SpanExporter, log *zap.Logger) *TracerProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return installTracer(log, sdktrace.WithSyncer(exp), sdktrace.WithSampler(sdktrace.AlwaysSample()))
}

func installTracer(log *zap.Logger, opts ...sdktrace.TracerProviderOption) *TracerProvider {
	sdk := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(sdk)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return &TracerProvider{sdk: sdk, provider: sdk, log: log}
}

// EnableSpanProfiles wraps the provider so that every span tags the CPU
// samples of its goroutine with span_id, linking traces to profiles. It is
// a no-op while trace export is disabled.
func (tp *TracerProvider) EnableSpanProfiles() {
	if !tp.IsEnabled() {
		tp.log.Debug("Span profiles need trace export, skipping")
		return
	}
	if tp.spanProfiles {
		return
	}
	tp.spanProfiles = true
	tp.provider = otelpyroscope.NewTracerProvider(tp.sdk)
	otel.SetTracerProvider(tp.provider)
	tp.log.Info("Span profiles enabled")
}

// samplerFor follows the caller's sampling decision and samples root spans
// at ratio. Zero turns tracing off entirely.
func samplerFor(ratio float64) sdktrace.Sampler {
	if ratio <= 0 {
		return sdktrace.NeverSample()
	}
	if ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func (tp *TracerProvider) IsEnabled() bool { return tp.sdk != nil }

func (tp *TracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if !tp.IsEnabled() {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return tp.provider.Tracer(name, opts...)
}

func (tp *TracerProvider) ForceFlush(ctx context.Context) error {
	if !tp.IsEnabled() {
		return nil
	}
	return tp.sdk.ForceFlush(ctx)
}

func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if !tp.IsEnabled() {
		return nil
	}
	if err := flushAndStop(ctx, "tracer", tp.sdk.Shutdown); err != nil {
		tp.log.Error("Tracer provider shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
