package challenge

import (
	"context"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// metrics holds the challenge lifecycle instruments
type metrics struct {
	opened      metric.Int64Counter
	submissions metric.Int64Counter
	grades      metric.Int64Counter
	completed   metric.Int64Counter
	active      metric.Int64UpDownCounter
}

func newMetrics(meter metric.Meter) (m *metrics, err error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("challenge")
	}

	m = new(metrics)
	if m.opened, err = meter.Int64Counter("challengesOpened", metric.WithDescription("Challenges opened")); err != nil {
		return nil, err
	}

	if m.submissions, err = meter.Int64Counter("submissionAttempts", metric.WithDescription("Submission attempts by outcome")); err != nil {
		return nil, err
	}

	if m.grades, err = meter.Int64Counter("gradeAttempts", metric.WithDescription("Grade attempts by outcome")); err != nil {
		return nil, err
	}

	if m.completed, err = meter.Int64Counter("challengesCompleted", metric.WithDescription("Challenges completed")); err != nil {
		return nil, err
	}

	if m.active, err = meter.Int64UpDownCounter("activeChallenges", metric.WithDescription("Challenges not yet completed")); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metrics) recordOpened(ctx context.Context) {
	m.opened.Add(ctx, 1)
	m.active.Add(ctx, 1)
}

func (m *metrics) recordSubmission(ctx context.Context, outcome string) {
	m.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *metrics) recordGrade(ctx context.Context, outcome string) {
	m.grades.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *metrics) recordCompleted(ctx context.Context, kind string) {
	m.completed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	m.active.Add(ctx, -1)
}
