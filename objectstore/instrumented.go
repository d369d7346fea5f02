package objectstore

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/renatoramossilva/bindl-lib/metrics"
)

const (
	opsMetric      = "objectstore_operations_total"
	durationMetric = "objectstore_operation_duration_seconds"
)

var durationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30}

// Instrumented wraps a Store and records per-operation counters and latency
// histograms through a metrics exporter.
type Instrumented struct {
	store    Store
	exporter *metrics.Exporter
}

// Instrument wraps store so every operation is recorded on exporter. The
// metric families are registered on first use; an exporter shared by several
// instrumented stores registers them once.
func Instrument(store Store, exporter *metrics.Exporter) (*Instrumented, error) {
	err := exporter.RegisterCounter(opsMetric, "Total object store operations by result.", []string{"op", "status"})
	if err != nil && !errors.Is(err, metrics.ErrDuplicateName) {
		return nil, err
	}
	err = exporter.RegisterHistogram(durationMetric, "Object store operation duration in seconds.", []string{"op"}, durationBuckets)
	if err != nil && !errors.Is(err, metrics.ErrDuplicateName) {
		return nil, err
	}
	return &Instrumented{store: store, exporter: exporter}, nil
}

// Put stores an object and records the operation.
func (i *Instrumented) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	start := time.Now()
	err := i.store.Put(ctx, key, reader, size, contentType)
	i.record("put", start, err == nil)
	return err
}

// Get retrieves an object and records the operation. A missing object still
// counts as a successful lookup.
func (i *Instrumented) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := i.store.Get(ctx, key)
	i.record("get", start, err == nil || errors.Is(err, ErrNotFound))
	return rc, err
}

// Head returns object metadata and records the operation.
func (i *Instrumented) Head(ctx context.Context, key string) (ObjectMeta, error) {
	start := time.Now()
	meta, err := i.store.Head(ctx, key)
	i.record("head", start, err == nil || errors.Is(err, ErrNotFound))
	return meta, err
}

// Delete removes an object and records the operation.
func (i *Instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.store.Delete(ctx, key)
	i.record("delete", start, err == nil)
	return err
}

// Close closes the underlying store.
func (i *Instrumented) Close() error {
	return i.store.Close()
}

func (i *Instrumented) record(op string, start time.Time, success bool) {
	status := "success"
	if !success {
		status = "failed"
	}
	_ = i.exporter.IncCounter(opsMetric, map[string]string{"op": op, "status": status}, 1)
	_ = i.exporter.ObserveHistogram(durationMetric, map[string]string{"op": op}, time.Since(start).Seconds())
}
