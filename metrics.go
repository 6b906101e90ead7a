package challengescot

import (
	"context"
	"fmt"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"time"
)

const (
	messageEventType      = "message"
	slashCommandEventType = "slashCommand"
	interactionEventType  = "interaction"
)

// instrumenter holds data for core instrumentation
type instrumenter struct {
	appName     string
	coreMetrics coreMetrics
}

// coreMetrics holds core challengescot metrics. Plugin metrics are recorded on the same instruments
// with a plugin attribute
type coreMetrics struct {
	eventsSeen                    metric.Int64Counter
	eventsProcessed               metric.Int64Counter
	eventProcessingLatencyMillis  metric.Int64Histogram
	msgDispatchLatencyMillis      metric.Int64Histogram
	pluginProcessingLatencyMillis metric.Int64Histogram
	pluginAnswerCount             metric.Int64Counter
}

// newInstrumenter creates a new core instrumenter. A nil meter disables metrics
func newInstrumenter(appName string, meter metric.Meter) (ins *instrumenter, err error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(appName)
	}

	ins = new(instrumenter)
	ins.appName = appName

	cm := &ins.coreMetrics
	if cm.eventsSeen, err = meter.Int64Counter("eventsSeen"); err != nil {
		return nil, err
	}

	if cm.eventsProcessed, err = meter.Int64Counter("eventsProcessed"); err != nil {
		return nil, err
	}

	if cm.eventProcessingLatencyMillis, err = meter.Int64Histogram("eventProcessingLatencyMillis", metric.WithUnit("ms")); err != nil {
		return nil, err
	}

	if cm.msgDispatchLatencyMillis, err = meter.Int64Histogram("msgDispatchLatencyMillis", metric.WithUnit("ms")); err != nil {
		return nil, err
	}

	if cm.pluginProcessingLatencyMillis, err = meter.Int64Histogram("pluginProcessingLatencyMillis", metric.WithUnit("ms")); err != nil {
		return nil, err
	}

	if cm.pluginAnswerCount, err = meter.Int64Counter("pluginAnswerCount"); err != nil {
		return nil, err
	}

	return ins, nil
}

func (ins *instrumenter) nameAttr() attribute.KeyValue {
	return attribute.String("name", ins.appName)
}

func (ins *instrumenter) recordEventSeen(ctx context.Context, eventType string) {
	ins.coreMetrics.eventsSeen.Add(ctx, 1, metric.WithAttributes(ins.nameAttr(), attribute.String("eventType", eventType)))
}

func (ins *instrumenter) recordEventProcessed(ctx context.Context, eventType string, d time.Duration) {
	attrs := metric.WithAttributes(ins.nameAttr(), attribute.String("eventType", eventType))
	ins.coreMetrics.eventsProcessed.Add(ctx, 1, attrs)
	ins.coreMetrics.eventProcessingLatencyMillis.Record(ctx, d.Milliseconds(), attrs)
}

func (ins *instrumenter) recordDispatch(ctx context.Context, d time.Duration) {
	ins.coreMetrics.msgDispatchLatencyMillis.Record(ctx, d.Milliseconds(), metric.WithAttributes(ins.nameAttr()))
}

func (ins *instrumenter) recordPluginProcessing(ctx context.Context, plugin string, d time.Duration, answers int) {
	attrs := metric.WithAttributes(ins.nameAttr(), attribute.String("plugin", plugin))
	ins.coreMetrics.pluginProcessingLatencyMillis.Record(ctx, d.Milliseconds(), attrs)
	ins.coreMetrics.pluginAnswerCount.Add(ctx, int64(answers), attrs)
}

// callTelemetry records call counts, error counts and latencies of the methods of a slack service
type callTelemetry struct {
	appName string
	calls   metric.Int64Counter
	errors  metric.Int64Counter
	latency metric.Int64Histogram
}

// newCallTelemetry creates the instruments of a service (i.e. chatDriver). A nil meter disables metrics
func newCallTelemetry(service string, appName string, meter metric.Meter) (ct *callTelemetry, err error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(appName)
	}

	ct = new(callTelemetry)
	ct.appName = appName

	if ct.calls, err = meter.Int64Counter(fmt.Sprintf("%sCalls", service)); err != nil {
		return nil, err
	}

	if ct.errors, err = meter.Int64Counter(fmt.Sprintf("%sErrors", service)); err != nil {
		return nil, err
	}

	if ct.latency, err = meter.Int64Histogram(fmt.Sprintf("%sProcessingTimeMillis", service), metric.WithUnit("ms")); err != nil {
		return nil, err
	}

	return ct, nil
}

// record records a call to a method that started at start and returned err
func (ct *callTelemetry) record(ctx context.Context, method string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("name", ct.appName), attribute.String("method", method))

	ct.calls.Add(ctx, 1, attrs)
	ct.latency.Record(ctx, time.Since(start).Milliseconds(), attrs)
	if err != nil {
		ct.errors.Add(ctx, 1, attrs)
	}
}

type timed func()

// measure returns the execution duration of a timed function
func measure(operation timed) (d time.Duration) {
	before := time.Now()

	operation()

	return time.Since(before)
}
