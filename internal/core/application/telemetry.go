package application

import (
	"context"

	"github.com/arkade-os/assetreg/internal/core/domain"
	"github.com/arkade-os/assetreg/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/arkade-os/assetreg/internal/core/application"

type transitionMetrics struct {
	tracer      trace.Tracer
	transitions metric.Int64Counter
}

// newTransitionMetrics binds to the global providers, which stay no-op unless
// the otel sdk is initialized.
func newTransitionMetrics() (*transitionMetrics, error) {
	transitions, err := otel.Meter(instrumentationName).Int64Counter(
		"assetreg_transitions_total",
		metric.WithDescription("Number of state transitions by operation and result"),
	)
	if err != nil {
		return nil, err
	}
	return &transitionMetrics{
		tracer:      otel.Tracer(instrumentationName),
		transitions: transitions,
	}, nil
}

// startTransition opens a span for the operation on the given record. The
// returned func must be called with the operation result.
func (s *service) startTransition(
	ctx context.Context, operation string, address domain.Identity,
) (context.Context, func(errors.Error)) {
	ctx, span := s.metrics.tracer.Start(ctx, operation, trace.WithAttributes(
		attribute.String("address", address.String()),
	))
	return ctx, func(err errors.Error) {
		result := "ok"
		if err != nil {
			result = err.CodeName()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		s.metrics.transitions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		))
		span.End()
	}
}
