package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName — имя tracer'а для span-ов приложения.
const InstrumentationName = "github.com/Kargones/aihub-smoke"

// StartSpan начинает span через глобальный TracerProvider.
// Без NewTracerProvider глобальный provider no-op и span ничего не стоит.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(InstrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan завершает span, помечая его ошибкой при err != nil.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// StartRunSpan начинает корневой span прогона сценария.
func StartRunSpan(ctx context.Context, scenario string, steps int) (context.Context, trace.Span) {
	return StartSpan(ctx, "smoke.run", AttrScenario.String(scenario), AttrStepsTotal.Int(steps))
}

// StartStepSpan начинает span одного HTTP шага сценария.
func StartStepSpan(ctx context.Context, step, detail, method, route string) (context.Context, trace.Span) {
	return StartSpan(ctx, "smoke."+step,
		AttrStepDetail.String(detail),
		AttrHTTPMethod.String(method),
		AttrHTTPRoute.String(route))
}

// EndStepSpan записывает исход шага и завершает span.
// Код ошибки пишется только для непустого errorCode.
func EndStepSpan(span trace.Span, status string, httpStatus int, errorCode string, err error) {
	span.SetAttributes(AttrStepStatus.String(status), AttrHTTPStatus.Int(httpStatus))
	if errorCode != "" {
		span.SetAttributes(AttrStepCode.String(errorCode))
	}
	EndSpan(span, err)
}
