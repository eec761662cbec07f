package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeStore struct {
	down  atomic.Bool
	calls atomic.Int32
}

func (f *fakeStore) Ping(context.Context) error {
	f.calls.Add(1)
	if f.down.Load() {
		return errors.New("unreachable")
	}
	return nil
}

func TestMonitorReportsStoreHealth(t *testing.T) {
	store := &fakeStore{}
	m := New(store, nil, 0, nil)

	m.Start()
	defer m.Stop()

	status := m.GetStatus()
	assert.True(t, status.Store)
	assert.False(t, status.CacheEnabled)
	assert.False(t, status.LastCheck.IsZero())
	assert.True(t, m.IsOnline())

	store.down.Store(true)
	m.refresh()
	assert.False(t, m.IsOnline())
	assert.GreaterOrEqual(t, store.calls.Load(), int32(2))
}

func TestMonitorWithoutStore(t *testing.T) {
	m := New(nil, nil, 0, nil)
	m.refresh()
	assert.False(t, m.IsOnline())
}

func TestStatusHealthy(t *testing.T) {
	assert.True(t, Status{Store: true}.Healthy())
	assert.False(t, Status{Store: true, CacheEnabled: true}.Healthy())
	assert.True(t, Status{Store: true, CacheEnabled: true, Cache: true}.Healthy())
	assert.False(t, Status{Cache: true, CacheEnabled: true}.Healthy())
}
