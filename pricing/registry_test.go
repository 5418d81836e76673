package pricing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRegistryLifecycle(t *testing.T) {
	f := newFixture()
	r := NewRegistry(f.deps, time.Hour)

	s, err := r.Create(context.Background(), &Order{ID: "o1", Status: OrderStatusInProgress})
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, 1, r.Len())

	got, err := r.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	other, err := r.Create(context.Background(), nil)
	require.NoError(t, err)
	assert.NotEqual(t, s.ID(), other.ID())
	_, active := f.observer.snapshot()
	assert.Equal(t, 2, active)

	require.NoError(t, r.End(s.ID()))
	_, err = r.Get(s.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, r.End(s.ID()), ErrSessionNotFound)

	_, active = f.observer.snapshot()
	assert.Equal(t, 1, active)
}

func TestRegistryEndCancelsTasks(t *testing.T) {
	f := newFixture()
	f.recalc.gate = make(chan struct{})
	r := NewRegistry(f.deps, time.Hour)

	s, err := r.Create(context.Background(), &Order{Status: OrderStatusInProgress})
	require.NoError(t, err)
	task, err := s.StartRecompute(context.Background())
	require.NoError(t, err)

	require.NoError(t, r.End(s.ID()))
	assert.ErrorIs(t, waitTask(t, task), context.Canceled)
}

func TestRegistrySweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC)}
	f := newFixture()
	f.deps.Now = clock.Now
	r := NewRegistry(f.deps, 2*time.Hour)

	idle, err := r.Create(context.Background(), nil)
	require.NoError(t, err)
	clock.Advance(90 * time.Minute)

	busy, err := r.Create(context.Background(), nil)
	require.NoError(t, err)
	clock.Advance(time.Hour)
	busy.View()

	assert.Equal(t, 1, r.Sweep(clock.Now()))
	_, err = r.Get(idle.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = r.Get(busy.ID())
	assert.NoError(t, err)

	assert.Equal(t, 0, NewRegistry(f.deps, 0).Sweep(clock.Now().Add(24*time.Hour)))
}
