package metrics

import "errors"

// Errors returned by registration and observation calls.
var (
	// ErrDuplicateName is returned when registering a metric name that is
	// already registered. The first definition remains in effect.
	ErrDuplicateName = errors.New("metrics: duplicate metric name")

	// ErrInvalidDefinition is returned when a metric definition is malformed:
	// empty or invalid metric name, empty, invalid or duplicated label names,
	// or histogram buckets that are not in ascending order.
	ErrInvalidDefinition = errors.New("metrics: invalid metric definition")

	// ErrLabelCardinality is returned when the number of supplied labels does
	// not match the number of label names declared at registration.
	ErrLabelCardinality = errors.New("metrics: label count does not match definition")

	// ErrMissingLabel is returned when a declared label name is absent from
	// the supplied label assignment.
	ErrMissingLabel = errors.New("metrics: missing label")

	// ErrNegativeDelta is returned by counter increments with a negative delta.
	ErrNegativeDelta = errors.New("metrics: counter delta must not be negative")
)
