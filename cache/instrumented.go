package cache

import (
	"context"
	"errors"
	"time"

	"github.com/renatoramossilva/bindl-lib/metrics"
)

// Metric names recorded by Instrumented.
const (
	opsMetric      = "cache_operations_total"
	durationMetric = "cache_operation_duration_seconds"
)

var durationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

// Instrumented wraps a Cache and records per-operation counters and latency
// histograms through a metrics exporter.
type Instrumented struct {
	cache    *Cache
	exporter *metrics.Exporter
}

// Instrument wraps cache so every operation is recorded on exporter.
// The metric families are registered on first use; an exporter shared by
// several instrumented caches registers them once.
func Instrument(cache *Cache, exporter *metrics.Exporter) (*Instrumented, error) {
	err := exporter.RegisterCounter(opsMetric, "Total cache operations by result.", []string{"op", "status"})
	if err != nil && !errors.Is(err, metrics.ErrDuplicateName) {
		return nil, err
	}
	err = exporter.RegisterHistogram(durationMetric, "Cache operation duration in seconds.", []string{"op"}, durationBuckets)
	if err != nil && !errors.Is(err, metrics.ErrDuplicateName) {
		return nil, err
	}
	return &Instrumented{cache: cache, exporter: exporter}, nil
}

// Set stores a key-value pair and records the operation.
func (i *Instrumented) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := i.cache.Set(ctx, key, value, ttl)
	i.record("set", start, err == nil)
	return err
}

// Get retrieves the value for key and records the operation. A missing key
// still counts as a successful lookup.
func (i *Instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	value, err := i.cache.Get(ctx, key)
	i.record("get", start, err == nil || errors.Is(err, ErrKeyNotFound))
	return value, err
}

// Delete removes a key and records the operation.
func (i *Instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.cache.Delete(ctx, key)
	i.record("delete", start, err == nil)
	return err
}

// SetField stores a hash field and records the operation.
func (i *Instrumented) SetField(ctx context.Context, name, field string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := i.cache.SetField(ctx, name, field, value, ttl)
	i.record("set_field", start, err == nil)
	return err
}

// GetField retrieves a hash field and records the operation.
func (i *Instrumented) GetField(ctx context.Context, name, field string) ([]byte, error) {
	start := time.Now()
	value, err := i.cache.GetField(ctx, name, field)
	i.record("get_field", start, err == nil || errors.Is(err, ErrKeyNotFound))
	return value, err
}

// Ping checks liveness and records the operation.
func (i *Instrumented) Ping(ctx context.Context) error {
	start := time.Now()
	err := i.cache.Ping(ctx)
	i.record("ping", start, err == nil)
	return err
}

// Close closes the underlying cache.
func (i *Instrumented) Close() error {
	return i.cache.Close()
}

func (i *Instrumented) record(op string, start time.Time, success bool) {
	status := "success"
	if !success {
		status = "failed"
	}
	_ = i.exporter.IncCounter(opsMetric, map[string]string{"op": op, "status": status}, 1)
	_ = i.exporter.ObserveHistogram(durationMetric, map[string]string{"op": op}, time.Since(start).Seconds())
}
