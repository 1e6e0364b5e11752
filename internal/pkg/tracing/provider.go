package tracing

import (
	"context"
	"net/url"

	"github.com/Kargones/aihub-smoke/internal/pkg/logging"
	"github.com/Kargones/aihub-smoke/internal/pkg/urlutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Атрибуты span-ов и resource прогона.
const (
	AttrHubTarget  = attribute.Key("aihub.target")
	AttrScenario   = attribute.Key("smoke.scenario")
	AttrStepsTotal = attribute.Key("smoke.steps")
	AttrStepDetail = attribute.Key("smoke.step.detail")
	AttrStepStatus = attribute.Key("smoke.step.status")
	AttrStepCode   = attribute.Key("smoke.step.error_code")
	AttrHTTPMethod = attribute.Key("http.method")
	AttrHTTPRoute  = attribute.Key("http.route")
	AttrHTTPStatus = attribute.Key("http.status_code")
)

// NewNopTracerProvider возвращает пустую shutdown-функцию.
func NewNopTracerProvider() func(context.Context) error {
	return func(context.Context) error { return nil }
}

// NewTracerProvider регистрирует глобальный TracerProvider с OTLP HTTP exporter
// и возвращает его Shutdown. Выключенный трейсинг даёт nop shutdown.
func NewTracerProvider(cfg Config, logger logging.Logger) (func(context.Context) error, error) {
	if !cfg.Enabled {
		logger.Debug("трейсинг выключен, span-ы шагов не экспортируются")
		return NewNopTracerProvider(), nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, err
	}
	exporter, err := otlptracehttp.New(context.Background(), exporterOptions(cfg)...)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.SamplingRate)),
	)
	otel.SetTracerProvider(tp)

	logger.Info("трейсинг прогонов AI Hub включён",
		"endpoint", cfg.Endpoint,
		"service_name", cfg.ServiceName,
		"hub_target", urlutil.Redact(cfg.HubTarget),
		"sampling_rate", cfg.SamplingRate,
	)
	return tp.Shutdown, nil
}

// newResource описывает процесс: сервис, версия, окружение и проверяемый AI Hub.
// Адрес AI Hub попадает в resource без учётных данных.
func newResource(cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.Version),
		semconv.DeploymentEnvironment(cfg.Environment),
	}
	if cfg.HubTarget != "" {
		attrs = append(attrs, AttrHubTarget.String(urlutil.Redact(cfg.HubTarget)))
	}
	// NewSchemaless: Schema URL resource.Default() и semconv расходятся.
	return resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
}

// exporterOptions: WithEndpoint принимает только host:port.
func exporterOptions(cfg Config) []otlptracehttp.Option {
	host := cfg.Endpoint
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		host = u.Host
	}
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(host),
		otlptracehttp.WithTimeout(cfg.Timeout),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

// ContextWithOTelTraceID делает внутренний trace_id trace ID всех span-ов,
// созданных из возвращённого контекста. Невалидный hex оставляет ctx как есть.
func ContextWithOTelTraceID(ctx context.Context, traceIDHex string) context.Context {
	traceID, err := trace.TraceIDFromHex(traceIDHex)
	if err != nil {
		return ctx
	}
	return trace.ContextWithRemoteSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	}))
}

// newSampler: ContextWithOTelTraceID всегда ставит FlagsSampled, поэтому
// remote parent тоже проходит через долю sampling.
func newSampler(rate float64) sdktrace.Sampler {
	ratio := sdktrace.TraceIDRatioBased(rate)
	return sdktrace.ParentBased(ratio, sdktrace.WithRemoteParentSampled(ratio))
}
