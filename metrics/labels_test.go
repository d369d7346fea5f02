package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelValuesCanonicalOrder(t *testing.T) {
	names := []string{"method", "endpoint"}

	values, extra, err := labelValues(names, map[string]string{
		"endpoint": "/users",
		"method":   "GET",
	})
	require.NoError(t, err)
	assert.Empty(t, extra)
	// Tuple order follows the declared names, not map iteration order.
	assert.Equal(t, []string{"GET", "/users"}, values)
}

func TestLabelValuesEmptyDeclaration(t *testing.T) {
	values, extra, err := labelValues(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, values)
	assert.Empty(t, extra)

	_, _, err = labelValues(nil, map[string]string{"x": "1"})
	require.ErrorIs(t, err, ErrLabelCardinality)
}

func TestLabelValuesCardinality(t *testing.T) {
	names := []string{"a", "b"}

	_, _, err := labelValues(names, map[string]string{"a": "1"})
	require.ErrorIs(t, err, ErrLabelCardinality)

	_, _, err = labelValues(names, map[string]string{"a": "1", "b": "2", "c": "3"})
	require.ErrorIs(t, err, ErrLabelCardinality)
}

func TestLabelValuesMissingWithExtras(t *testing.T) {
	names := []string{"a", "b"}

	_, extra, err := labelValues(names, map[string]string{"a": "1", "c": "3"})
	require.ErrorIs(t, err, ErrMissingLabel)
	assert.Equal(t, []string{"c"}, extra)
}

func TestSeriesKeyCollisionResistance(t *testing.T) {
	// Adjacent values must not alias across tuple positions.
	assert.NotEqual(t, seriesKey([]string{"a", "b"}), seriesKey([]string{"ab", ""}))
	assert.NotEqual(t, seriesKey([]string{"", "x"}), seriesKey([]string{"x", ""}))
}
