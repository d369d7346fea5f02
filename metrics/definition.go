package metrics

import "fmt"

// Type identifies the kind of a metric family.
type Type int

const (
	// TypeCounter is a monotonically non-decreasing accumulator.
	TypeCounter Type = iota
	// TypeGauge is an arbitrary up/down accumulator, last-write-wins.
	TypeGauge
	// TypeHistogram counts observations into cumulative buckets and tracks
	// total count and sum.
	TypeHistogram
	// TypeSummary tracks total count and sum of observations.
	TypeSummary
)

func (t Type) String() string {
	switch t {
	case TypeCounter:
		return "counter"
	case TypeGauge:
		return "gauge"
	case TypeHistogram:
		return "histogram"
	case TypeSummary:
		return "summary"
	default:
		return "unknown"
	}
}

// Definition describes a metric family. Name, Type and LabelNames are fixed
// at registration and immutable thereafter.
type Definition struct {
	// Name is the unique metric name, e.g. "requests_total".
	Name string

	// Help is the human-readable description emitted on the HELP line.
	Help string

	// Type is the metric kind.
	Type Type

	// LabelNames is the ordered list of label dimensions. Every observation
	// must supply a value for each name. May be empty.
	LabelNames []string

	// Buckets holds the histogram bucket upper bounds in ascending order.
	// Only meaningful for TypeHistogram; a +Inf bucket is always implied and
	// need not be listed.
	Buckets []float64
}

// validate checks the definition and returns a normalized copy with label
// names and buckets duplicated so later caller mutations cannot leak in.
func (d Definition) validate() (Definition, error) {
	if !validMetricName(d.Name) {
		return d, fmt.Errorf("%w: metric name %q", ErrInvalidDefinition, d.Name)
	}
	seen := make(map[string]struct{}, len(d.LabelNames))
	for _, name := range d.LabelNames {
		if !validLabelName(name) {
			return d, fmt.Errorf("%w: label name %q", ErrInvalidDefinition, name)
		}
		if _, dup := seen[name]; dup {
			return d, fmt.Errorf("%w: duplicate label name %q", ErrInvalidDefinition, name)
		}
		if d.Type == TypeHistogram && name == bucketLabel {
			return d, fmt.Errorf("%w: label name %q is reserved for histograms", ErrInvalidDefinition, name)
		}
		seen[name] = struct{}{}
	}
	d.LabelNames = append([]string(nil), d.LabelNames...)

	if d.Type == TypeHistogram {
		bounds, err := normalizeBuckets(d.Buckets)
		if err != nil {
			return d, err
		}
		d.Buckets = bounds
	} else {
		d.Buckets = nil
	}
	return d, nil
}

// normalizeBuckets copies the bounds, collapses equal adjacent bounds, strips
// a trailing +Inf (the +Inf bucket is implicit) and rejects descending input.
func normalizeBuckets(buckets []float64) ([]float64, error) {
	bounds := make([]float64, 0, len(buckets))
	for i, b := range buckets {
		if i > 0 {
			prev := buckets[i-1]
			if b < prev {
				return nil, fmt.Errorf("%w: histogram buckets not in ascending order (%v after %v)", ErrInvalidDefinition, b, prev)
			}
			if b == prev {
				continue
			}
		}
		bounds = append(bounds, b)
	}
	if n := len(bounds); n > 0 && isInf(bounds[n-1]) {
		bounds = bounds[:n-1]
	}
	return bounds, nil
}

// validMetricName reports whether name matches [a-zA-Z_:][a-zA-Z0-9_:]*.
func validMetricName(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == ':' || c >= '0' && c <= '9' && i > 0) {
			return false
		}
	}
	return true
}

// validLabelName reports whether name matches [a-zA-Z_][a-zA-Z0-9_]*.
func validLabelName(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c >= '0' && c <= '9' && i > 0) {
			return false
		}
	}
	return true
}
