package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func TestRedisStore_SaveLoad(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	require.NoError(t, store.Save(ctx, "s1", map[uuid.UUID]int{a: 2, b: 1}))
	assert.True(t, mr.Exists(cartKey("s1")))
	assert.Equal(t, time.Hour, mr.TTL(cartKey("s1")))

	items, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int{a: 2, b: 1}, items)
}

func TestRedisStore_Miss(t *testing.T) {
	store, _ := setupTestRedis(t)

	items, err := store.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRedisStore_SaveEmptyDeletes(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", map[uuid.UUID]int{uuid.New(): 1}))
	require.NoError(t, store.Save(ctx, "s1", map[uuid.UUID]int{}))
	assert.False(t, mr.Exists(cartKey("s1")))
}

func TestRedisStore_InvalidJSON(t *testing.T) {
	store, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(cartKey("s1"), `{"items":`))

	_, err := store.Load(context.Background(), "s1")
	require.ErrorContains(t, err, "unmarshal cart failed")
}

func TestRedisStore_SaveRefreshesTTL(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, store.Save(ctx, "s1", map[uuid.UUID]int{id: 1}))
	mr.FastForward(30 * time.Minute)
	require.NoError(t, store.Save(ctx, "s1", map[uuid.UUID]int{id: 2}))
	assert.Equal(t, time.Hour, mr.TTL(cartKey("s1")))

	mr.FastForward(2 * time.Hour)
	items, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartKey_Format(t *testing.T) {
	assert.Equal(t, "cart:abc", cartKey("abc"))
}

func TestService_WithRedisStore(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()
	id := uuid.New()

	svc := NewService(store, catalogFunc(func(_ context.Context, pid uuid.UUID) (*ProductView, error) {
		return &ProductView{ID: pid, Name: "Tote", IsActive: true, StockQuantity: 5}, nil
	}), nil)

	require.NoError(t, svc.AddItem(ctx, "s1", id, 2))
	require.NoError(t, svc.AddItem(ctx, "s1", id, 3))
	require.ErrorIs(t, svc.AddItem(ctx, "s1", id, 1), ErrInsufficientStock)

	n, err := svc.TotalItemCount(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

type catalogFunc func(ctx context.Context, id uuid.UUID) (*ProductView, error)

func (f catalogFunc) GetProductByID(ctx context.Context, id uuid.UUID) (*ProductView, error) {
	return f(ctx, id)
}
