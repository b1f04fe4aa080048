package squarewebhook

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryIdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]any
}

func (m *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.keys[key]; ok {
		return v.(string), nil
	}
	return "", nil
}

func (m *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys == nil {
		m.keys = map[string]any{}
	}
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = value
	return true, nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (m *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.keys, k)
	}
	return nil
}

func TestIdempotencyGuardMarksOnce(t *testing.T) {
	ctx := context.Background()
	store := &memoryIdempotencyStore{}
	guard, err := NewIdempotencyGuard(store, time.Hour, "square")
	require.NoError(t, err)

	seen, err := guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, guard.Delete(ctx, "evt_1"))
	seen, err = guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)
	assert.Contains(t, store.keys, "idem:square:evt_1")
}

func TestIdempotencyGuardValidation(t *testing.T) {
	_, err := NewIdempotencyGuard(nil, time.Hour, "square")
	assert.Error(t, err)
	_, err = NewIdempotencyGuard(&memoryIdempotencyStore{}, -time.Second, "square")
	assert.Error(t, err)
	_, err = NewIdempotencyGuard(&memoryIdempotencyStore{}, time.Hour, "")
	assert.Error(t, err)

	guard, err := NewIdempotencyGuard(&memoryIdempotencyStore{}, time.Hour, "square")
	require.NoError(t, err)
	_, err = guard.CheckAndMark(context.Background(), "")
	assert.Error(t, err)
}
