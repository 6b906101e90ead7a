package datastoredb

import (
	"cloud.google.com/go/datastore"
	"context"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"time"
)

// datastorerWithTelemetry implements datastorer with all methods wrapped with open telemetry metrics
type datastorerWithTelemetry struct {
	base    datastorer
	name    string
	calls   metric.Int64Counter
	errors  metric.Int64Counter
	latency metric.Int64Histogram
}

// newDatastorerWithTelemetry returns an instance of the datastorer decorated with open telemetry timing and count metrics
func newDatastorerWithTelemetry(base datastorer, name string, meter metric.Meter) (d *datastorerWithTelemetry, err error) {
	d = &datastorerWithTelemetry{base: base, name: name}

	if d.calls, err = meter.Int64Counter("datastorerCalls"); err != nil {
		return nil, err
	}

	if d.errors, err = meter.Int64Counter("datastorerErrors"); err != nil {
		return nil, err
	}

	if d.latency, err = meter.Int64Histogram("datastorerProcessingTimeMillis", metric.WithUnit("ms")); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *datastorerWithTelemetry) record(ctx context.Context, method string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("name", d.name), attribute.String("method", method))

	d.calls.Add(ctx, 1, attrs)
	d.latency.Record(ctx, time.Since(start).Milliseconds(), attrs)
	if err != nil && err != datastore.ErrNoSuchEntity {
		d.errors.Add(ctx, 1, attrs)
	}
}

// Close implements datastorer
func (d *datastorerWithTelemetry) Close() (err error) {
	defer func(start time.Time) {
		d.record(context.Background(), "Close", start, err)
	}(time.Now())

	return d.base.Close()
}

// Delete implements datastorer
func (d *datastorerWithTelemetry) Delete(ctx context.Context, k *datastore.Key) (err error) {
	defer func(start time.Time) {
		d.record(ctx, "Delete", start, err)
	}(time.Now())

	return d.base.Delete(ctx, k)
}

// Get implements datastorer
func (d *datastorerWithTelemetry) Get(ctx context.Context, k *datastore.Key, dest interface{}) (err error) {
	defer func(start time.Time) {
		d.record(ctx, "Get", start, err)
	}(time.Now())

	return d.base.Get(ctx, k, dest)
}

// GetAll implements datastorer
func (d *datastorerWithTelemetry) GetAll(ctx context.Context, query *datastore.Query, dest interface{}) (keys []*datastore.Key, err error) {
	defer func(start time.Time) {
		d.record(ctx, "GetAll", start, err)
	}(time.Now())

	return d.base.GetAll(ctx, query, dest)
}

// Put implements datastorer
func (d *datastorerWithTelemetry) Put(ctx context.Context, k *datastore.Key, v interface{}) (key *datastore.Key, err error) {
	defer func(start time.Time) {
		d.record(ctx, "Put", start, err)
	}(time.Now())

	return d.base.Put(ctx, k, v)
}

// connect implements datastorer
func (d *datastorerWithTelemetry) connect() (err error) {
	defer func(start time.Time) {
		d.record(context.Background(), "connect", start, err)
	}(time.Now())

	return d.base.connect()
}
