package metrics

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renatoramossilva/bindl-lib/logging"
)

// testLogger returns a logger writing text entries into buf, for asserting on
// warnings emitted by the permissive observation paths.
func testLogger(buf *bytes.Buffer) *logging.Logger {
	return logging.New(logging.Config{
		Level:  logging.LevelDebug,
		Format: logging.FormatText,
		Output: buf,
	})
}

func TestRegisterDuplicateName(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.RegisterCounter("requests_total", "Total requests.", []string{"method"}))

	err := r.RegisterCounter("requests_total", "Different help.", nil)
	require.ErrorIs(t, err, ErrDuplicateName)

	// Registering under another type must fail the same way.
	err = r.RegisterGauge("requests_total", "Total requests.", nil)
	require.ErrorIs(t, err, ErrDuplicateName)

	// The first definition stays in effect: observation with the original
	// label set still works.
	require.NoError(t, r.IncCounter("requests_total", map[string]string{"method": "GET"}, 1))
}

func TestRegisterInvalidDefinition(t *testing.T) {
	r := NewRegistry(nil)

	tests := []struct {
		name string
		def  Definition
	}{
		{"empty name", Definition{Name: "", Type: TypeCounter}},
		{"bad name", Definition{Name: "1bad", Type: TypeCounter}},
		{"name with space", Definition{Name: "bad name", Type: TypeCounter}},
		{"empty label name", Definition{Name: "m", Type: TypeCounter, LabelNames: []string{""}}},
		{"bad label name", Definition{Name: "m", Type: TypeCounter, LabelNames: []string{"9x"}}},
		{"duplicate label name", Definition{Name: "m", Type: TypeCounter, LabelNames: []string{"a", "a"}}},
		{"reserved le label", Definition{Name: "m", Type: TypeHistogram, LabelNames: []string{"le"}}},
		{"descending buckets", Definition{Name: "m", Type: TypeHistogram, Buckets: []float64{1, 0.5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Register(tt.def)
			require.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestRegisterHistogramBucketNormalization(t *testing.T) {
	r := NewRegistry(nil)

	// Equal adjacent bounds collapse, "le" is only reserved for histograms.
	err := r.RegisterHistogram("h", "", nil, []float64{0.1, 0.1, 0.5, 1})
	require.NoError(t, err)

	r.mu.RLock()
	f := r.families["h"]
	r.mu.RUnlock()
	assert.Equal(t, []float64{0.1, 0.5, 1}, f.def.Buckets)
}

func TestCounterNegativeDelta(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.RegisterCounter("c", "", nil))
	require.NoError(t, r.IncCounter("c", nil, 3))

	err := r.IncCounter("c", nil, -1)
	require.ErrorIs(t, err, ErrNegativeDelta)

	var out bytes.Buffer
	_, err = r.WriteTo(&out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "c 3\n")
}

func TestUnknownMetricIsWarningNotError(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(testLogger(&buf))

	err := r.IncCounter("unknown_total", nil, 1)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "not registered")
	assert.Contains(t, buf.String(), "unknown_total")

	// No series was created: the exposition output stays empty.
	var out bytes.Buffer
	_, err = r.WriteTo(&out)
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "unknown_total")
}

func TestTypeMismatchIsWarningNotError(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(testLogger(&buf))
	require.NoError(t, r.RegisterGauge("temp", "", nil))

	// Incrementing a gauge as a counter routes to the counter path; the
	// original exporter kept per-type maps so this was a lookup miss there.
	require.NoError(t, r.IncCounter("temp", nil, 1))
	assert.Contains(t, buf.String(), "different type")

	// The no-op created no series.
	var out bytes.Buffer
	_, err := r.WriteTo(&out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "# TYPE temp gauge\n")
	assert.NotContains(t, out.String(), "temp 1")
}

func TestLabelCardinalityMismatch(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.RegisterCounter("c", "", []string{"method"}))

	err := r.IncCounter("c", nil, 1)
	require.ErrorIs(t, err, ErrLabelCardinality)

	err = r.IncCounter("c", map[string]string{"method": "GET", "extra": "x"}, 1)
	require.ErrorIs(t, err, ErrLabelCardinality)

	// No series was mutated or created by the failing calls.
	var out bytes.Buffer
	_, werr := r.WriteTo(&out)
	require.NoError(t, werr)
	assert.NotContains(t, out.String(), "method")
}

func TestMissingLabelReportsUndeclaredExtras(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry(testLogger(&buf))
	require.NoError(t, r.RegisterCounter("c", "", []string{"method"}))

	err := r.IncCounter("c", map[string]string{"verb": "GET"}, 1)
	require.ErrorIs(t, err, ErrMissingLabel)
	assert.Contains(t, buf.String(), "undeclared labels ignored")
	assert.Contains(t, buf.String(), "verb")
}

func TestGaugeSetAndAdd(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.RegisterGauge("temp", "", nil))

	require.NoError(t, r.SetGauge("temp", nil, 10))
	require.NoError(t, r.SetGauge("temp", nil, 5))

	var out bytes.Buffer
	_, err := r.WriteTo(&out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "temp 5\n")

	require.NoError(t, r.AddGauge("temp", nil, -2.5))
	out.Reset()
	_, err = r.WriteTo(&out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "temp 2.5\n")
}

func TestLazySeriesCreation(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.RegisterCounter("c", "", []string{"method"}))

	// Registration alone creates no series.
	var out bytes.Buffer
	_, err := r.WriteTo(&out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2) // HELP and TYPE only

	require.NoError(t, r.IncCounter("c", map[string]string{"method": "GET"}, 0))
	out.Reset()
	_, err = r.WriteTo(&out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `c{method="GET"} 0`+"\n")
}

func TestConcurrentCounterIncrements(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.RegisterCounter("c", "", []string{"worker"}))

	const workers = 16
	const perWorker = 1000

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// All workers hammer the same series.
			labels := map[string]string{"worker": "shared"}
			for i := 0; i < perWorker; i++ {
				if err := r.IncCounter("c", labels, 1); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	var out bytes.Buffer
	_, err := r.WriteTo(&out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `c{worker="shared"} 16000`+"\n")
}

func TestConcurrentMixedObservationsAndScrapes(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.RegisterCounter("ops_total", "", []string{"op"}))
	require.NoError(t, r.RegisterHistogram("latency", "", nil, []float64{0.1, 0.5, 1}))
	require.NoError(t, r.RegisterSummary("size", "", nil))

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			labels := map[string]string{"op": "get"}
			for i := 0; i < 500; i++ {
				_ = r.IncCounter("ops_total", labels, 1)
				_ = r.ObserveHistogram("latency", nil, 0.3)
				_ = r.ObserveSummary("size", nil, 2)
			}
		}(w)
	}
	// Scrapes run concurrently with the writers and must not deadlock.
	for s := 0; s < 4; s++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				var out bytes.Buffer
				if _, err := r.WriteTo(&out); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	var out bytes.Buffer
	_, err := r.WriteTo(&out)
	require.NoError(t, err)
	got := out.String()
	assert.Contains(t, got, `ops_total{op="get"} 4000`+"\n")
	assert.Contains(t, got, "latency_count 4000\n")
	assert.Contains(t, got, "size_sum 8000\n")
	assert.Contains(t, got, "size_count 4000\n")
}
