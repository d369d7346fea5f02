package cache

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renatoramossilva/bindl-lib/metrics"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(Config{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestOpenRequiresDir(t *testing.T) {
	_, err := Open(Config{}, nil)
	require.Error(t, err)
}

func TestSetGetDelete(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "foo", []byte("bar"), 0))

	got, err := c.Get(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, []byte("bar"), got)

	require.NoError(t, c.Delete(ctx, "foo"))
	_, err = c.Get(ctx, "foo")
	require.ErrorIs(t, err, ErrKeyNotFound)

	// Deleting a missing key is not an error.
	require.NoError(t, c.Delete(ctx, "foo"))
}

func TestGetMissingKey(t *testing.T) {
	c := openTestCache(t)
	_, err := c.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestSetWithTTL(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "ephemeral", []byte("x"), 50*time.Millisecond))

	_, err := c.Get(ctx, "ephemeral")
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)
	_, err = c.Get(ctx, "ephemeral")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestHashFields(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetField(ctx, "user:1", "name", []byte("ada"), 0))
	require.NoError(t, c.SetField(ctx, "user:1", "role", []byte("admin"), 0))

	got, err := c.GetField(ctx, "user:1", "name")
	require.NoError(t, err)
	assert.Equal(t, []byte("ada"), got)

	_, err = c.GetField(ctx, "user:1", "email")
	require.ErrorIs(t, err, ErrKeyNotFound)

	// Hash fields do not leak into the plain key namespace.
	_, err = c.Get(ctx, "user:1")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestPingAndClose(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Close())

	require.ErrorIs(t, c.Ping(ctx), ErrClosed)
	_, err := c.Get(ctx, "foo")
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, c.Set(ctx, "foo", nil, 0), ErrClosed)
}

func TestInstrumentedRecordsOperations(t *testing.T) {
	c := openTestCache(t)
	exp, err := metrics.NewExporter(metrics.Config{}, nil)
	require.NoError(t, err)
	defer exp.Close()

	ic, err := Instrument(c, exp)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, ic.Set(ctx, "foo", []byte("bar"), 0))
	_, err = ic.Get(ctx, "foo")
	require.NoError(t, err)
	_, err = ic.Get(ctx, "missing") // miss still counts as success
	require.ErrorIs(t, err, ErrKeyNotFound)
	require.NoError(t, ic.Ping(ctx))

	var out bytes.Buffer
	_, err = exp.Registry().WriteTo(&out)
	require.NoError(t, err)
	got := out.String()

	assert.Contains(t, got, `cache_operations_total{op="set",status="success"} 1`+"\n")
	assert.Contains(t, got, `cache_operations_total{op="get",status="success"} 2`+"\n")
	assert.Contains(t, got, `cache_operations_total{op="ping",status="success"} 1`+"\n")
	assert.Contains(t, got, `cache_operation_duration_seconds_count{op="get"} 2`+"\n")
}

func TestInstrumentSharedExporter(t *testing.T) {
	exp, err := metrics.NewExporter(metrics.Config{}, nil)
	require.NoError(t, err)
	defer exp.Close()

	c1 := openTestCache(t)
	c2 := openTestCache(t)

	// Both wrappers share the same metric families without a duplicate
	// registration failure.
	_, err = Instrument(c1, exp)
	require.NoError(t, err)
	_, err = Instrument(c2, exp)
	require.NoError(t, err)
}
