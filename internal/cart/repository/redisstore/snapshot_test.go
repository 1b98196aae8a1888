package redisstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renovamx/storefront/internal/domain"
)

func setupTestStore(t *testing.T) (*SnapshotStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSnapshotStore(client, 24*time.Hour), mr
}

func sampleItems() []domain.LineItem {
	return []domain.LineItem{
		{ID: "prod-1", Name: "Camiseta", Price: 45000, Quantity: 2},
		{ID: "prod-2", Name: "Gorra", Price: 25000, Quantity: 1},
	}
}

func TestSnapshotStore_SaveAndLoad(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "device-1", sampleItems()))

	items, err := store.Load(ctx, "device-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "prod-1", items[0].ID)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestSnapshotStore_Load_MissingKeyIsEmptyCart(t *testing.T) {
	store, _ := setupTestStore(t)

	items, err := store.Load(context.Background(), "device-unknown")
	require.NoError(t, err)
	assert.Nil(t, items)
}

func TestSnapshotStore_Load_CorruptValue(t *testing.T) {
	store, mr := setupTestStore(t)
	require.NoError(t, mr.Set("cart:snapshot:device-1", "{not json"))

	_, err := store.Load(context.Background(), "device-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal cart snapshot")
}

func TestSnapshotStore_Save_SetsTTL(t *testing.T) {
	store, mr := setupTestStore(t)

	require.NoError(t, store.Save(context.Background(), "device-1", sampleItems()))

	ttl := mr.TTL("cart:snapshot:device-1")
	assert.Equal(t, 24*time.Hour, ttl)
}

func TestSnapshotStore_Save_ReplacesWholesale(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "device-1", sampleItems()))
	require.NoError(t, store.Save(ctx, "device-1", []domain.LineItem{{ID: "prod-3", Price: 10000, Quantity: 1}}))

	raw, err := mr.Get("cart:snapshot:device-1")
	require.NoError(t, err)

	var items []domain.LineItem
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "prod-3", items[0].ID)
}

func TestSnapshotStore_Delete(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "device-1", sampleItems()))
	require.NoError(t, store.Delete(ctx, "device-1"))

	items, err := store.Load(ctx, "device-1")
	require.NoError(t, err)
	assert.Nil(t, items)
}
