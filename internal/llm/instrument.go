package llm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/Iron-Ham/twentyq/internal/llm"

// Traced wraps g so every call is recorded as an "llm.generate" span.
// A nil provider uses the global tracer provider.
func Traced(g Generator, provider trace.TracerProvider) Generator {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &tracedGenerator{
		next:   g,
		tracer: provider.Tracer(instrumentationName),
	}
}

type tracedGenerator struct {
	next   Generator
	tracer trace.Tracer
}

func (t *tracedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := t.tracer.Start(ctx, "llm.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("llm.prompt_length", len(prompt))),
	)
	defer span.End()

	text, err := t.next.Generate(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.Int("llm.response_length", len(text)))
	return text, nil
}
