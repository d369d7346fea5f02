package objectstore

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"
)

// Mock is an in-memory Store for tests.
type Mock struct {
	mu      sync.RWMutex
	objects map[string]mockObject
	closed  bool

	// FailNext makes the next operation fail with the given error.
	FailNext error
}

type mockObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// NewMock creates an empty in-memory store.
func NewMock() *Mock {
	return &Mock{objects: make(map[string]mockObject)}
}

func (m *Mock) takeFailure() error {
	err := m.FailNext
	m.FailNext = nil
	return err
}

// Put stores an object in memory.
func (m *Mock) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return &ObjectError{Op: "Put", Key: key, Err: err}
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return &ObjectError{Op: "Put", Key: key, Err: err}
	}
	m.objects[key] = mockObject{data: data, contentType: contentType, modified: time.Now()}
	return nil
}

// Get retrieves an object from memory.
func (m *Mock) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, &ObjectError{Op: "Get", Key: key, Err: err}
	}
	obj, ok := m.objects[key]
	if !ok {
		return nil, &ObjectError{Op: "Get", Key: key, Err: ErrNotFound}
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Head returns object metadata.
func (m *Mock) Head(ctx context.Context, key string) (ObjectMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return ObjectMeta{}, &ObjectError{Op: "Head", Key: key, Err: ErrNotFound}
	}
	return ObjectMeta{
		Key:          key,
		Size:         int64(len(obj.data)),
		ContentType:  obj.contentType,
		LastModified: obj.modified.UnixMilli(),
	}, nil
}

// Delete removes an object; missing objects are ignored.
func (m *Mock) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return &ObjectError{Op: "Delete", Key: key, Err: err}
	}
	delete(m.objects, key)
	return nil
}

// Close marks the store closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
