package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/flume/pkg/adapters/memory"
	"github.com/aretw0/flume/pkg/adapters/redis"
	"github.com/aretw0/flume/pkg/blueprint"
	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/ports"
)

type recordingLocker struct {
	mu       sync.Mutex
	keys     []string
	ttls     []time.Duration
	unlocked int
	err      error
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.keys = append(l.keys, key)
	l.ttls = append(l.ttls, ttl)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocked++
		return nil
	}, nil
}

func TestManager_Serialises(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()

	var inside, peak atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.WithLock(ctx, "doubler", func(context.Context) error {
				n := inside.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
	assert.Zero(t, m.active("doubler"), "lock entries are dropped once unused")
}

func TestManager_DistinctNamesDoNotBlock(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = m.WithLock(ctx, "a", func(context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	done := make(chan struct{})
	go func() {
		_ = m.WithLock(ctx, "b", func(context.Context) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b waited for a")
	}
	assert.Equal(t, 1, m.active("a"))
	close(release)
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	m := NewManager(memory.NewStore(), WithLocker(locker), WithKeyPrefix("run:"), WithTTL(time.Minute))
	ctx := context.Background()

	bp := &blueprint.Blueprint{Name: "doubler"}
	require.NoError(t, m.Save(ctx, "doubler", bp))
	loaded, err := m.Load(ctx, "doubler")
	require.NoError(t, err)
	assert.Equal(t, "doubler", loaded.Name)
	require.NoError(t, m.Delete(ctx, "doubler"))

	assert.Equal(t, []string{"run:doubler", "run:doubler", "run:doubler"}, locker.keys)
	assert.Equal(t, time.Minute, locker.ttls[0])
	assert.Equal(t, 3, locker.unlocked)

	_, err = m.Load(ctx, "doubler")
	assert.ErrorIs(t, err, domain.ErrBlueprintNotFound)
}

func TestManager_LockerFailure(t *testing.T) {
	boom := errors.New("unavailable")
	m := NewManager(nil, WithLocker(&recordingLocker{err: boom}))

	called := false
	err := m.WithLock(context.Background(), "x", func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
	assert.Zero(t, m.active("x"))
}

func TestManager_RedisLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	st := redis.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = st.Close() })

	m := NewManager(st, WithLocker(st.Locker()), WithKeyPrefix("run:"))
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, "doubler", &blueprint.Blueprint{Name: "doubler"}))
	err := m.WithLock(ctx, "doubler", func(context.Context) error {
		assert.True(t, mr.Exists("flume:blueprint:lock:run:doubler"))
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("flume:blueprint:lock:run:doubler"))

	names, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"doubler"}, names)
	assert.Same(t, ports.BlueprintStore(st), m.Store())
}
