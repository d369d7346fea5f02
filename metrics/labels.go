package metrics

import (
	"fmt"
	"strings"
)

// keySep joins label values into a series key. 0xFF cannot appear in valid
// UTF-8 text, so joined values cannot collide.
const keySep = "\xff"

// labelValues resolves a caller-supplied label assignment against the declared
// label names and returns the canonical ordered value tuple.
//
// A label count that differs from the declaration fails with
// ErrLabelCardinality. At matching count, a declared name absent from the
// assignment fails with ErrMissingLabel; any undeclared keys standing in for
// it are returned in extra so the caller can warn about them.
func labelValues(labelNames []string, labels map[string]string) (values []string, extra []string, err error) {
	if len(labels) != len(labelNames) {
		return nil, nil, fmt.Errorf("%w: got %d, want %d", ErrLabelCardinality, len(labels), len(labelNames))
	}

	values = make([]string, len(labelNames))
	for i, name := range labelNames {
		v, ok := labels[name]
		if !ok {
			for k := range labels {
				if !containsName(labelNames, k) {
					extra = append(extra, k)
				}
			}
			return nil, extra, fmt.Errorf("%w: %q", ErrMissingLabel, name)
		}
		values[i] = v
	}
	return values, nil, nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// seriesKey builds the map key for a label value tuple.
func seriesKey(values []string) string {
	return strings.Join(values, keySep)
}
