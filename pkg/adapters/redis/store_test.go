package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/flume/pkg/adapters/redis"
	"github.com/aretw0/flume/pkg/blueprint"
	"github.com/aretw0/flume/pkg/domain"
	"github.com/aretw0/flume/pkg/ports"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)

	store := redis.NewFromClient(client)
	ports.RunBlueprintStoreContract(t, store)
}

func TestRedisStore_PrefixAndTTL(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("test:bp:"), redis.WithTTL(time.Minute))
	ctx := context.Background()

	bp := &blueprint.Blueprint{Processes: []blueprint.ProcessDef{{Name: "src", Type: "numbers"}}}
	require.NoError(t, store.Save(ctx, "counting", bp))

	assert.True(t, mr.Exists("test:bp:counting"))
	assert.Greater(t, mr.TTL("test:bp:counting"), time.Duration(0))

	mr.FastForward(2 * time.Minute)
	_, err := store.Load(ctx, "counting")
	assert.ErrorIs(t, err, domain.ErrBlueprintNotFound)
}

func TestRedisStore_ListPrunesExpired(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("prune:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "keep", &blueprint.Blueprint{}))
	// An index entry whose expiry is already in the past.
	_, err := mr.ZAdd("prune:index", 1, "stale")
	require.NoError(t, err)

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, names)
}

func TestRedisStore_New(t *testing.T) {
	mr, _ := newClient(t)
	store := redis.New(mr.Addr(), "", 0)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "x", &blueprint.Blueprint{Name: "x"}))
	bp, err := store.Load(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "x", bp.Name)
	assert.True(t, mr.Exists("flume:blueprint:x"))
}
