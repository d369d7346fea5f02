package metrics

import (
	"fmt"
	"sync"

	"github.com/renatoramossilva/bindl-lib/logging"
)

// Registry maps metric names to families. Registration is append-only for the
// process lifetime: a name, once registered, can never be re-registered or
// removed. Lookup is safe under arbitrary concurrent readers and writers.
type Registry struct {
	logger *logging.Logger

	mu       sync.RWMutex
	families map[string]*family
}

// NewRegistry creates an empty registry. Warnings about unknown metrics and
// undeclared labels go to logger; a nil logger falls back to the default.
func NewRegistry(logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Registry{
		logger:   logger,
		families: make(map[string]*family),
	}
}

// Register adds a new metric family. It fails with ErrDuplicateName if the
// name is already registered (the first definition remains in effect) and
// with ErrInvalidDefinition for malformed definitions.
func (r *Registry) Register(def Definition) error {
	def, err := def.validate()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.families[def.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, def.Name)
	}
	r.families[def.Name] = newFamily(def)
	return nil
}

// RegisterCounter registers a counter metric.
func (r *Registry) RegisterCounter(name, help string, labelNames []string) error {
	return r.Register(Definition{Name: name, Help: help, Type: TypeCounter, LabelNames: labelNames})
}

// RegisterGauge registers a gauge metric.
func (r *Registry) RegisterGauge(name, help string, labelNames []string) error {
	return r.Register(Definition{Name: name, Help: help, Type: TypeGauge, LabelNames: labelNames})
}

// RegisterHistogram registers a histogram metric with the given bucket upper
// bounds. A +Inf bucket is always appended implicitly.
func (r *Registry) RegisterHistogram(name, help string, labelNames []string, buckets []float64) error {
	return r.Register(Definition{Name: name, Help: help, Type: TypeHistogram, LabelNames: labelNames, Buckets: buckets})
}

// RegisterSummary registers a summary metric tracking count and sum.
func (r *Registry) RegisterSummary(name, help string, labelNames []string) error {
	return r.Register(Definition{Name: name, Help: help, Type: TypeSummary, LabelNames: labelNames})
}

// IncCounter adds delta to the counter series identified by labels. A negative
// delta fails with ErrNegativeDelta and leaves state unchanged.
func (r *Registry) IncCounter(name string, labels map[string]string, delta float64) error {
	f := r.lookup(name, TypeCounter)
	if f == nil {
		return nil
	}
	if delta < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeDelta, delta)
	}
	s, err := r.resolve(f, labels)
	if err != nil {
		return err
	}
	s.add(delta)
	return nil
}

// SetGauge overwrites the gauge series value, last-write-wins.
func (r *Registry) SetGauge(name string, labels map[string]string, value float64) error {
	f := r.lookup(name, TypeGauge)
	if f == nil {
		return nil
	}
	s, err := r.resolve(f, labels)
	if err != nil {
		return err
	}
	s.set(value)
	return nil
}

// AddGauge adds delta to the gauge series value. Negative deltas are allowed.
func (r *Registry) AddGauge(name string, labels map[string]string, delta float64) error {
	f := r.lookup(name, TypeGauge)
	if f == nil {
		return nil
	}
	s, err := r.resolve(f, labels)
	if err != nil {
		return err
	}
	s.add(delta)
	return nil
}

// ObserveHistogram records value into the histogram series identified by
// labels: every bucket whose upper bound is >= value, plus total count and sum.
func (r *Registry) ObserveHistogram(name string, labels map[string]string, value float64) error {
	f := r.lookup(name, TypeHistogram)
	if f == nil {
		return nil
	}
	s, err := r.resolve(f, labels)
	if err != nil {
		return err
	}
	s.observeHistogram(f.def.Buckets, value)
	return nil
}

// ObserveSummary records value into the summary series identified by labels.
func (r *Registry) ObserveSummary(name string, labels map[string]string, value float64) error {
	f := r.lookup(name, TypeSummary)
	if f == nil {
		return nil
	}
	s, err := r.resolve(f, labels)
	if err != nil {
		return err
	}
	s.observeSummary(value)
	return nil
}

// lookup finds the family for an observation call. A name that was never
// registered, or registered under a different type, is not a fatal error:
// the mismatch is logged and the observation becomes a no-op so instrumented
// call sites are never crashed by a missing or mistyped metric name.
func (r *Registry) lookup(name string, want Type) *family {
	r.mu.RLock()
	f := r.families[name]
	r.mu.RUnlock()

	if f == nil {
		r.logger.Warnf("metric is not registered", map[string]any{
			"metric": name,
			"type":   want.String(),
		})
		return nil
	}
	if f.def.Type != want {
		r.logger.Warnf("metric registered under a different type", map[string]any{
			"metric":     name,
			"registered": f.def.Type.String(),
			"requested":  want.String(),
		})
		return nil
	}
	return f
}

// resolve validates the label assignment against the family's declaration and
// returns the target series, creating it at zero state on first use.
func (r *Registry) resolve(f *family, labels map[string]string) (*series, error) {
	values, extra, err := labelValues(f.def.LabelNames, labels)
	if len(extra) > 0 {
		r.logger.Warnf("undeclared labels ignored", map[string]any{
			"metric": f.def.Name,
			"labels": extra,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("metric %q: %w", f.def.Name, err)
	}
	return f.getOrCreate(values), nil
}

// snapshot returns all families sorted by name, for deterministic exposition.
func (r *Registry) snapshot() []*family {
	r.mu.RLock()
	out := make([]*family, 0, len(r.families))
	for _, f := range r.families {
		out = append(out, f)
	}
	r.mu.RUnlock()

	sortFamilies(out)
	return out
}
